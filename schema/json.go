// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// jsonField is the wire shape of a Field, per spec §6:
//
//	{"name": str, "data_type": str, "nullable"?: bool, "strategy"?: str,
//	 "children"?: [field, ...]}
type jsonField struct {
	Name     string      `json:"name"`
	DataType string      `json:"data_type"`
	Nullable bool        `json:"nullable,omitempty"`
	Strategy string      `json:"strategy,omitempty"`
	Children []jsonField `json:"children,omitempty"`
}

// jsonSchema accepts either `[field, ...]` or `{"fields": [field, ...]}`.
type jsonSchema struct {
	Fields []jsonField `json:"fields"`
}

func toJSONField(f Field) jsonField {
	children := make([]jsonField, len(f.Children))
	for i, c := range f.Children {
		children[i] = toJSONField(c)
	}
	return jsonField{
		Name:     f.Name,
		DataType: FormatDataType(f.DataType, f.Unit, f.Timezone),
		Nullable: f.Nullable,
		Strategy: f.Strategy.String(),
		Children: children,
	}
}

func fromJSONField(jf jsonField) (Field, error) {
	dt, unit, tz, err := ParseDataType(jf.DataType)
	if err != nil {
		return Field{}, errors.Wrapf(err, "schema: field %q", jf.Name)
	}
	strat, ok := ParseStrategy(jf.Strategy)
	if !ok {
		return Field{}, errors.Errorf("schema: field %q: unknown strategy %q", jf.Name, jf.Strategy)
	}
	var children []Field
	if len(jf.Children) > 0 {
		children = make([]Field, len(jf.Children))
		for i, jc := range jf.Children {
			c, err := fromJSONField(jc)
			if err != nil {
				return Field{}, err
			}
			children[i] = c
		}
	}
	return Field{
		Name:     jf.Name,
		DataType: dt,
		Nullable: jf.Nullable,
		Strategy: strat,
		Unit:     unit,
		Timezone: tz,
		Children: children,
	}, nil
}

// MarshalJSON renders the schema as `[field, ...]`, the canonical stable
// shape; ParseJSON accepts both shapes on read.
func (s Schema) MarshalJSON() ([]byte, error) {
	fields := make([]jsonField, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = toJSONField(f)
	}
	return json.Marshal(fields)
}

// ParseJSON parses the textual schema format described in spec §6.
func ParseJSON(data []byte) (Schema, error) {
	var rawFields []jsonField
	if err := json.Unmarshal(data, &rawFields); err == nil {
		return fieldsToSchema(rawFields)
	}
	var wrapped jsonSchema
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return Schema{}, errors.Wrap(err, "schema: invalid schema JSON")
	}
	return fieldsToSchema(wrapped.Fields)
}

func fieldsToSchema(raw []jsonField) (Schema, error) {
	fields := make([]Field, len(raw))
	for i, jf := range raw {
		f, err := fromJSONField(jf)
		if err != nil {
			return Schema{}, err
		}
		fields[i] = f
	}
	s := Schema{Fields: fields}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}
