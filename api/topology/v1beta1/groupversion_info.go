// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

// Package v1beta1 contains the topology snapshot objects the overlay BGP planner reads: BGP routers,
// physical routers, data center interconnects, routing policies and the global system config.
// +groupName=topology.githedgehog.com
package v1beta1

import (
	kmetav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var GroupVersion = schema.GroupVersion{Group: "topology.githedgehog.com", Version: "v1beta1"}

const (
	KindBGPRouter              = "BGPRouter"
	KindPhysicalRouter         = "PhysicalRouter"
	KindDataCenterInterconnect = "DataCenterInterconnect"
	KindRoutingPolicy          = "RoutingPolicy"
	KindGlobalSystemConfig     = "GlobalSystemConfig"
)

type Defaultable interface {
	Default()
}

type Validatable interface {
	Validate() error
}

// Prunable is implemented by objects that drop their invalid nested entries instead of failing as a whole, every
// dropped entry is reported as an error
type Prunable interface {
	Prune() []error
}

// Object is implemented by every topology object that could be loaded into a snapshot
type Object interface {
	kmetav1.Object

	Defaultable
	Validatable
}

func typeMeta(kind string) kmetav1.TypeMeta {
	return kmetav1.TypeMeta{
		APIVersion: GroupVersion.String(),
		Kind:       kind,
	}
}
