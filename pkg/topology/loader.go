// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"bufio"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	topoapi "go.githedgehog.com/fabric-overlay/api/topology/v1beta1"
	kmetav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	kyaml "sigs.k8s.io/yaml"
)

// LoadDataFrom loads a snapshot from the file, from all .yaml files in the directory (recursively) or from stdin if
// "-" is passed
func LoadDataFrom(from string) (*Data, error) {
	data, err := New()
	if err != nil {
		return nil, err
	}

	if from == "-" {
		return data, errors.Wrap(Load(os.Stdin, data), "error loading from stdin")
	}

	fromFile := "."

	if info, err := os.Stat(from); err != nil {
		return nil, errors.Wrapf(err, "error checking %s", from)
	} else if !info.IsDir() {
		fromFile = filepath.Base(from)
		from = filepath.Dir(from)
	}

	if err := LoadDir(os.DirFS(from), fromFile, data); err != nil {
		return nil, errors.Wrap(err, "error loading dir")
	}

	return data, nil
}

func LoadDir(f fs.FS, root string, data *Data) error {
	return fs.WalkDir(f, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if filepath.Ext(path) != ".yaml" || strings.Contains(path, ".skip.") {
			return nil
		}

		return errors.Wrapf(LoadFile(f, path, data), "error loading file %s", path)
	})
}

func LoadFile(f fs.FS, path string, data *Data) error {
	yamlFile, err := fs.ReadFile(f, path)
	if err != nil {
		return errors.Wrapf(err, "error reading file %s", path)
	}

	return Load(bytes.NewReader(yamlFile), data)
}

func Load(r io.Reader, data *Data) error {
	multidocReader := utilyaml.NewYAMLReader(bufio.NewReader(r))

	for idx := 0; ; idx++ {
		buf, err := multidocReader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return errors.Wrap(err, "error multidoc-parsing")
		}

		obj, err := decode(buf)
		if err != nil {
			return errors.Wrapf(err, "error decoding object #%d", idx)
		}
		if obj == nil {
			continue
		}

		if err := data.Add(obj); err != nil {
			return err
		}
	}

	return nil
}

// decode returns nil object for empty documents
func decode(buf []byte) (topoapi.Object, error) {
	typeMeta := &kmetav1.TypeMeta{}
	if err := kyaml.Unmarshal(buf, typeMeta); err != nil {
		return nil, errors.Wrap(err, "error reading type meta")
	}

	if typeMeta.APIVersion == "" && typeMeta.Kind == "" {
		raw := map[string]any{}
		if err := kyaml.Unmarshal(buf, &raw); err == nil && len(raw) == 0 {
			return nil, nil
		}

		return nil, errors.Errorf("apiVersion and kind are required")
	}

	if typeMeta.APIVersion != topoapi.GroupVersion.String() {
		return nil, errors.Errorf("unsupported apiVersion %q", typeMeta.APIVersion)
	}

	var obj topoapi.Object
	switch typeMeta.Kind {
	case topoapi.KindBGPRouter:
		obj = &topoapi.BGPRouter{}
	case topoapi.KindPhysicalRouter:
		obj = &topoapi.PhysicalRouter{}
	case topoapi.KindDataCenterInterconnect:
		obj = &topoapi.DataCenterInterconnect{}
	case topoapi.KindRoutingPolicy:
		obj = &topoapi.RoutingPolicy{}
	case topoapi.KindGlobalSystemConfig:
		obj = &topoapi.GlobalSystemConfig{}
	default:
		return nil, errors.Errorf("unsupported kind %q", typeMeta.Kind)
	}

	if err := kyaml.UnmarshalStrict(buf, obj); err != nil {
		return nil, errors.Wrapf(err, "error unmarshaling %s", typeMeta.Kind)
	}

	return obj, nil
}
