// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricNamespace = "overlay"
	MetricSubsystem = "bgp"

	ReloadResultSuccess = "success"
	ReloadResultError   = "error"
)

type Metrics struct {
	reg *prometheus.Registry

	Plans           *prometheus.CounterVec
	PlanGroups      *prometheus.GaugeVec
	Reloads         *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	autoreg := promauto.With(reg)

	return &Metrics{
		reg: reg,
		Plans: autoreg.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricNamespace,
			Subsystem: MetricSubsystem,
			Name:      "plans_total",
			Help:      "Number of overlay BGP features generated per physical router",
		}, []string{"router"}),
		PlanGroups: autoreg.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricNamespace,
			Subsystem: MetricSubsystem,
			Name:      "plan_groups",
			Help:      "Number of BGP groups in the last feature generated for the physical router",
		}, []string{"router"}),
		Reloads: autoreg.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricNamespace,
			Subsystem: MetricSubsystem,
			Name:      "reloads_total",
			Help:      "Number of topology snapshot reloads by result",
		}, []string{"result"}),
		RequestDuration: autoreg.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricNamespace,
			Subsystem: MetricSubsystem,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of the HTTP API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}
