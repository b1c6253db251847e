// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

// Package render prints the generated features as text tables, YAML or JSON.
package render

import (
	"encoding/json"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pkg/errors"
	"go.githedgehog.com/fabric-overlay/pkg/feature"
	kyaml "sigs.k8s.io/yaml"
)

type OutputType string

const (
	OutputTypeUndefined OutputType = ""
	OutputTypeText      OutputType = "text"
	OutputTypeJSON      OutputType = "json"
	OutputTypeYAML      OutputType = "yaml"
)

var OutputTypes = []OutputType{OutputTypeText, OutputTypeJSON, OutputTypeYAML}

// ParseOutputType returns text for the empty string
func ParseOutputType(s string) (OutputType, error) {
	if s == "" {
		return OutputTypeText, nil
	}

	out := OutputType(s)
	if !slices.Contains(OutputTypes, out) {
		return OutputTypeUndefined, errors.Errorf("invalid output type: %s", s)
	}

	return out, nil
}

type Out interface {
	MarshalText() (string, error)
}

// Router is the feature generated for a single physical router
type Router struct {
	Router  string           `json:"router"`
	Feature *feature.Feature `json:"feature"`

	noColor bool
}

// Routers is the features generated for multiple physical routers, in the order they were added
type Routers struct {
	Routers []*Router `json:"routers"`

	noColor bool
}

var (
	_ Out = (*Router)(nil)
	_ Out = (*Routers)(nil)
)

// NewRouter masks authentication keys unless showSecrets is set
func NewRouter(name string, f *feature.Feature, showSecrets bool) *Router {
	if !showSecrets && f != nil {
		f = f.CleanupSensetive()
	}

	return &Router{
		Router:  name,
		Feature: f,
	}
}

func (r *Router) WithNoColor(noColor bool) *Router {
	r.noColor = noColor

	return r
}

func (r *Router) MarshalText() (string, error) {
	str := &strings.Builder{}
	writeRouter(str, r, newPalette(r.noColor))

	return str.String(), nil
}

func (r *Routers) Add(router *Router) {
	r.Routers = append(r.Routers, router)
}

func (r *Routers) WithNoColor(noColor bool) *Routers {
	r.noColor = noColor

	return r
}

func (r *Routers) MarshalText() (string, error) {
	str := &strings.Builder{}
	p := newPalette(r.noColor)

	for idx, router := range r.Routers {
		if idx > 0 {
			str.WriteString("\n")
		}
		writeRouter(str, router, p)
	}

	return str.String(), nil
}

func Render[TOut Out](output OutputType, w io.Writer, out TOut) error {
	var data []byte
	var err error
	switch output {
	case OutputTypeText:
		dataS, err := out.MarshalText()
		if err != nil {
			return errors.Wrapf(err, "failed to marshal output as text")
		}

		data = []byte(dataS)
	case OutputTypeYAML:
		data, err = kyaml.Marshal(out)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal output as yaml")
		}
	case OutputTypeJSON:
		data, err = json.MarshalIndent(out, "", "  ")
		if err != nil {
			return errors.Wrapf(err, "failed to marshal output as json")
		}
		data = append(data, '\n')
	case OutputTypeUndefined:
		return errors.Errorf("output type %s is not defined", output)
	default:
		return errors.Errorf("output type %s is not implemented", output)
	}

	_, err = w.Write(data)
	if err != nil {
		return errors.Wrapf(err, "failed to write output")
	}

	return nil
}

func RenderTable(headers []string, data [][]string) string {
	str := &strings.Builder{}

	cfg := tablewriter.Config{
		Row: tw.CellConfig{
			Formatting: tw.CellFormatting{
				AutoWrap:  tw.WrapNormal,
				Alignment: tw.AlignLeft,
			},
			Padding: tw.CellPadding{Global: tw.Padding{Right: "    "}},
		},
		Header: tw.CellConfig{
			Formatting: tw.CellFormatting{
				AutoWrap:  tw.WrapNormal,
				Alignment: tw.AlignLeft,
			},
			Padding: tw.CellPadding{Global: tw.Padding{Right: "    "}},
		},
	}
	rendition := tw.Rendition{
		Borders: tw.BorderNone,
		Settings: tw.Settings{
			Lines:      tw.LinesNone,
			Separators: tw.SeparatorsNone,
		},
	}

	table := tablewriter.NewTable(str,
		tablewriter.WithRenderer(renderer.NewBlueprint(rendition)),
		tablewriter.WithConfig(cfg),
	)
	table.Header(headers)
	if err := table.Bulk(data); err != nil {
		slog.Error("Error in adding bulk data to table", "error", err)

		return "Error"
	}
	if err := table.Render(); err != nil {
		slog.Error("Error in table rendering", "error", err)

		return "Error"
	}

	return str.String()
}
