// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"maps"
	"slices"
	"strings"

	"github.com/maruel/natural"
	"github.com/pkg/errors"
	kmetav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Store is a name-keyed collection of topology objects of a single kind
type Store[T kmetav1.Object] struct {
	m map[string]T
}

func NewStore[T kmetav1.Object]() *Store[T] {
	return &Store[T]{
		make(map[string]T),
	}
}

func (s *Store[T]) Add(update bool, item T) error {
	if item.GetName() == "" {
		return errors.Errorf("item name is required")
	}
	if _, exists := s.m[item.GetName()]; !update && exists {
		return errors.Errorf("item already exists %s", item.GetName())
	}

	s.m[item.GetName()] = item

	return nil
}

// Get returns zero value (nil for pointer types) if there is no such item
func (s *Store[T]) Get(name string) T {
	return s.m[name]
}

func (s *Store[T]) All() []T {
	objs := slices.Collect(maps.Values(s.m))

	SortByName(objs)

	return objs
}

func (s *Store[T]) Size() int {
	return len(s.m)
}

func SortByName[T kmetav1.Object](objs []T) {
	slices.SortFunc(objs, func(a, b T) int {
		return strings.Compare(a.GetName(), b.GetName())
	})
}

// CompareNames compares object names in the natural order, so pr-2 goes before pr-10
func CompareNames(a, b string) int {
	if a == b {
		return 0
	} else if natural.Less(a, b) {
		return -1
	}

	return 1
}
