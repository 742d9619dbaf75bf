// Mgmt
// Copyright (C) James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Additional permission under GNU GPL version 3 section 7
//
// If you modify this program, or any covered work, by linking or combining it
// with embedded mcl code and modules (and that the embedded mcl code and
// modules which link with this program, contain a copy of their source code in
// the authoritative form) containing parts covered by the terms of any other
// license, the licensors of this program grant you additional permission to
// convey the resulting work. Furthermore, the licensors of this program grant
// the original author, James Shubin, additional permission to update this
// additional permission if he deems it necessary to achieve the goals of this
// additional permission.

//go:build !root

package encoding

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/purpleidea/lazygraph/lang/ast"
	"github.com/purpleidea/lazygraph/lang/catalog"
	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/lang/types"
	"github.com/purpleidea/lazygraph/util"

	"github.com/davecgh/go-spew/spew"
	"github.com/kylelemons/godebug/pretty"
)

func testSignatures() map[string]*types.Signature {
	return map[string]*types.Signature{
		"Image.constant": {
			Args: []*types.Arg{
				{Name: "value", Type: "Object"},
			},
			Returns: "Image",
		},
		"Image.select": {
			Args: []*types.Arg{
				{Name: "input", Type: "Image"},
				{Name: "bandSelectors", Type: "Array"},
				{Name: "newNames", Type: "List", Optional: true},
			},
			Returns: "Image",
		},
		"Feature": {
			Args: []*types.Arg{
				{Name: "geometry", Type: "Geometry"},
				{Name: "metadata", Type: "Dictionary", Optional: true},
			},
			Returns: "Feature",
		},
		"Filter.date": {
			Args: []*types.Arg{
				{Name: "start", Type: "Date"},
				{Name: "end", Type: "Date", Optional: true},
			},
			Returns: "Filter",
		},
		"Collection.loadTable": {
			Args: []*types.Arg{
				{Name: "tableId", Type: "String"},
			},
			Returns: "FeatureCollection",
		},
		"Collection.map": {
			Args: []*types.Arg{
				{Name: "collection", Type: "FeatureCollection"},
				{Name: "baseAlgorithm", Type: "Algorithm"},
				{Name: "dropNulls", Type: "Boolean", Optional: true},
			},
			Returns: "FeatureCollection",
		},
		"Feature.buffer": {
			Args: []*types.Arg{
				{Name: "feature", Type: "Feature"},
				{Name: "distance", Type: "Number"},
			},
			Returns: "Feature",
		},
		"Blob.decode": {
			Args: []*types.Arg{
				{Name: "bytes", Type: "Bytes"},
				{Name: "fallback", Type: "Object", Optional: true},
			},
			Returns: "Object",
		},
		"LoadAlgorithmById": {
			Args: []*types.Arg{
				{Name: "id", Type: "String"},
			},
			Returns: "Algorithm",
		},
	}
}

func testData(t *testing.T) *interfaces.Data {
	table, err := catalog.NewStaticTable(testSignatures())
	if err != nil {
		t.Fatalf("could not build table: %+v", err)
	}
	return &interfaces.Data{
		Catalog: table,
		Namer:   interfaces.NewNamer(),
		Debug:   testing.Verbose(),
		Logf: func(format string, v ...interface{}) {
			t.Logf("encoding: "+format, v...)
		},
	}
}

// invoke is a test helper which fails the test if the invocation fails.
func invoke(t *testing.T, data *interfaces.Data, name string, receiver interface{}, args ...interface{}) interface{} {
	out, err := ast.Invoke(data, name, receiver, args...)
	if err != nil {
		t.Fatalf("invoke of %s failed: %+v", name, err)
	}
	return out
}

// testTrees returns a set of graphs built from catalog invocations and
// literals.
func testTrees(t *testing.T, data *interfaces.Data) map[string]interface{} {
	trees := make(map[string]interface{})

	image := invoke(t, data, "Image.constant", nil, 1)
	trees["select"] = invoke(t, data, "Image.select", image, []string{"B1", "B2"})
	trees["select keyword"] = invoke(t, data, "Image.select", image, map[string]interface{}{
		"bandSelectors": []interface{}{0, 1.5, "B3"},
		"newNames":      []interface{}{"a", types.Null{}},
	})

	geom, err := types.NewGeometry(map[string]interface{}{
		"type":        "Polygon",
		"coordinates": []interface{}{[]interface{}{[]interface{}{0, 0}, []interface{}{1, 0}, []interface{}{1, 1}, []interface{}{0, 0}}},
		"geodesic":    false,
	})
	if err != nil {
		t.Fatalf("geometry failed: %+v", err)
	}
	trees["feature"] = invoke(t, data, "Feature", nil, geom, map[string]interface{}{
		"name":  "field",
		"area":  12.25,
		"image": image,
	})

	start := types.NewDate(time.Date(2020, 1, 2, 3, 4, 5, 6000, time.UTC))
	trees["date"] = invoke(t, data, "Filter.date", nil, start, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))

	trees["bytes"] = invoke(t, data, "Blob.decode", nil, types.NewBytes([]byte("hello")), types.Null{})

	sig := &types.Signature{
		Args: []*types.Arg{
			{Name: "feature", Type: "Feature"},
		},
		Returns: "Feature",
	}
	fn, err := ast.NewUserFunc(data, sig, func(args ...interface{}) (interface{}, error) {
		return ast.Invoke(data, "Feature.buffer", args[0], 10)
	})
	if err != nil {
		t.Fatalf("user func failed: %+v", err)
	}
	table := invoke(t, data, "Collection.loadTable", nil, "users/foo/fields")
	trees["map"] = invoke(t, data, "Collection.map", table, fn)

	saved, err := ast.NewSavedFunc(data, "users/foo/algo", sig)
	if err != nil {
		t.Fatalf("saved func failed: %+v", err)
	}
	out, err := ast.Call(saved, table)
	if err != nil {
		t.Fatalf("saved call failed: %+v", err)
	}
	trees["saved"] = out

	return trees
}

func TestSerialize0(t *testing.T) {
	data := testData(t)
	image := invoke(t, data, "Image.constant", nil, 1)
	out := invoke(t, data, "Image.select", image, []interface{}{"B1", "B2"})
	s, err := Serialize(out)
	if err != nil {
		t.Errorf("serialize failed: %+v", err)
		return
	}
	exp := `{"arguments":{"bandSelectors":["B1","B2"],"input":{"arguments":{"value":1},"functionName":"Image.constant","type":"Invocation"}},"functionName":"Image.select","type":"Invocation"}`
	if s != exp {
		t.Errorf("unexpected output:\nexp: %s\ngot: %s", exp, s)
	}
}

func TestRoundTrip0(t *testing.T) {
	data := testData(t)
	trees := testTrees(t, data)
	for _, name := range util.StrMapKeys(trees) {
		tree := trees[name]
		t.Run(name, func(t *testing.T) {
			s1, err := Serialize(tree)
			if err != nil {
				t.Errorf("serialize failed: %+v", err)
				return
			}
			decoded, err := Decode(data, []byte(s1))
			if err != nil {
				t.Errorf("decode failed: %+v", err)
				t.Logf("input: %s", s1)
				return
			}
			s2, err := Serialize(decoded)
			if err != nil {
				t.Errorf("second serialize failed: %+v", err)
				t.Logf("decoded: %s", spew.Sdump(decoded))
				return
			}
			if s1 != s2 {
				t.Errorf("round trip is not byte-identical:\nexp: %s\ngot: %s", s1, s2)
			}
		})
	}
}

func TestCloudRoundTrip0(t *testing.T) {
	data := testData(t)
	trees := testTrees(t, data)
	for _, name := range util.StrMapKeys(trees) {
		tree := trees[name]
		t.Run(name, func(t *testing.T) {
			s1, err := SerializeCloud(tree)
			if err != nil {
				t.Errorf("serialize failed: %+v", err)
				return
			}
			decoded, err := DecodeCloud(data, []byte(s1))
			if err != nil {
				t.Errorf("decode failed: %+v", err)
				t.Logf("input: %s", s1)
				return
			}
			s2, err := SerializeCloud(decoded)
			if err != nil {
				t.Errorf("second serialize failed: %+v", err)
				return
			}
			if s1 != s2 {
				t.Errorf("round trip is not byte-identical:\nexp: %s\ngot: %s", s1, s2)
			}
		})
	}
}

func TestScopeOrder0(t *testing.T) {
	data := testData(t)
	forward := `{"type":"CompoundValue","scope":[["x",{"type":"ValueRef","value":"y"}],["y",1]],"value":{"type":"ValueRef","value":"x"}}`
	if _, err := Decode(data, []byte(forward)); !errors.Is(err, interfaces.ErrUnknownValueRef) {
		t.Errorf("expected unknown value ref, got: %v", err)
	}

	backward := `{"type":"CompoundValue","scope":[["y",1],["x",{"type":"ValueRef","value":"y"}]],"value":{"type":"ValueRef","value":"x"}}`
	out, err := Decode(data, []byte(backward))
	if err != nil {
		t.Errorf("decode failed: %+v", err)
		return
	}
	if out != json.Number("1") {
		t.Errorf("expected 1, got: %#v", out)
	}

	duplicate := `{"type":"CompoundValue","scope":[["y",1],["y",2]],"value":{"type":"ValueRef","value":"y"}}`
	if _, err := Decode(data, []byte(duplicate)); !errors.Is(err, interfaces.ErrDuplicateScopeKey) {
		t.Errorf("expected duplicate scope key, got: %v", err)
	}
}

func TestDecodeErrors0(t *testing.T) {
	data := testData(t)
	testCases := []struct {
		name string
		json string
		fail error
	}{
		{
			name: "nested in scope",
			json: `{"type":"CompoundValue","scope":[["a",{"type":"CompoundValue","scope":[],"value":1}]],"value":2}`,
			fail: interfaces.ErrNestedCompoundValue,
		},
		{
			name: "nested in value",
			json: `{"type":"CompoundValue","scope":[],"value":[{"type":"CompoundValue","scope":[],"value":1}]}`,
			fail: interfaces.ErrNestedCompoundValue,
		},
		{
			name: "nested in arguments",
			json: `{"type":"Invocation","functionName":"Image.constant","arguments":{"value":{"type":"CompoundValue","scope":[],"value":1}}}`,
			fail: interfaces.ErrNestedCompoundValue,
		},
		{
			name: "unknown type",
			json: `{"type":"Frobnicate","value":1}`,
			fail: interfaces.ErrUnknownEncodedType,
		},
		{
			name: "untyped object",
			json: `{"value":1}`,
			fail: interfaces.ErrUnknownEncodedType,
		},
		{
			name: "unknown function",
			json: `{"type":"Invocation","functionName":"Image.nope","arguments":{}}`,
			fail: interfaces.ErrUnknownFunction,
		},
		{
			name: "unknown ref",
			json: `{"type":"ValueRef","value":"a"}`,
			fail: interfaces.ErrUnknownValueRef,
		},
		{
			name: "unrecognized argument",
			json: `{"type":"Invocation","functionName":"Image.constant","arguments":{"value":1,"other":2}}`,
			fail: interfaces.ErrUnrecognizedArgument,
		},
		{
			name: "bad date",
			json: `{"type":"Date","value":"soon"}`,
			fail: interfaces.ErrMalformedNode,
		},
	}
	for index, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(data, []byte(tc.json)); !errors.Is(err, tc.fail) {
				t.Errorf("test #%d: expected %v, got: %v", index, tc.fail, err)
			}
		})
	}
}

func TestDecodeFunction0(t *testing.T) {
	data := testData(t)
	s := `{"arguments":{"x":5},"function":{"argumentNames":["x"],"body":{"type":"ArgumentRef","value":"x"},"type":"Function"},"type":"Invocation"}`
	out, err := Decode(data, []byte(s))
	if err != nil {
		t.Errorf("decode failed: %+v", err)
		return
	}
	call, ok := out.(*ast.ExprCall)
	if !ok {
		t.Errorf("expected an invocation, got: %T", out)
		return
	}
	fn, ok := call.Func().(*ast.UserFunc)
	if !ok {
		t.Errorf("expected a user function, got: %T", call.Func())
		return
	}
	if diff := pretty.Compare([]string{"x"}, fn.Signature().ArgNames()); diff != "" {
		t.Errorf("unexpected argument names (-exp +got):\n%s", diff)
	}
	if s2, err := Serialize(out); err != nil || s2 != s {
		t.Errorf("unexpected re-serialization: %s, %v", s2, err)
	}
}

func TestDecodeAlgorithmValue0(t *testing.T) {
	data := testData(t)
	// the function is the result of another invocation
	s := `{"arguments":{"x":1},"function":{"arguments":{"id":"users/foo/algo"},"functionName":"LoadAlgorithmById","type":"Invocation"},"type":"Invocation"}`
	out, err := Decode(data, []byte(s))
	if err != nil {
		t.Errorf("decode failed: %+v", err)
		return
	}
	call, ok := out.(*ast.ExprCall)
	if !ok || call.Func().Kind() != interfaces.KindValue {
		t.Errorf("expected a generic invocation, got: %T", out)
		return
	}
	if s2, err := Serialize(out); err != nil || s2 != s {
		t.Errorf("unexpected re-serialization: %s, %v", s2, err)
	}
}

func TestUnboundVariable0(t *testing.T) {
	data := testData(t)
	fn, err := ast.NewMappingFunc(data, []string{"Feature"}, "Feature", func(args ...interface{}) (interface{}, error) {
		return ast.Invoke(data, "Feature.buffer", args[0], 10)
	})
	if err != nil {
		t.Errorf("mapping func failed: %+v", err)
		return
	}
	if _, err := Serialize(fn); !errors.Is(err, interfaces.ErrUnboundVariable) {
		t.Errorf("expected unbound variable, got: %v", err)
	}
	if _, err := SerializeCloud(fn); !errors.Is(err, interfaces.ErrUnboundVariable) {
		t.Errorf("expected unbound variable, got: %v", err)
	}

	table := invoke(t, data, "Collection.loadTable", nil, "users/foo/fields")
	out := invoke(t, data, "Collection.map", table, fn)
	s, err := Serialize(out)
	if err != nil {
		t.Errorf("serialize failed: %+v", err)
		return
	}
	if _, err := Decode(data, []byte(s)); err != nil {
		t.Errorf("decode failed: %+v", err)
	}
}

func TestCompound0(t *testing.T) {
	data := testData(t)
	compound := NewCompound()
	image := invoke(t, data, "Image.constant", nil, 1)
	ref, err := compound.Bind("0", image)
	if err != nil {
		t.Errorf("bind failed: %+v", err)
		return
	}
	if _, err := compound.Bind("0", image); !errors.Is(err, interfaces.ErrDuplicateScopeKey) {
		t.Errorf("expected duplicate scope key, got: %v", err)
	}
	root := invoke(t, data, "Image.select", ref, []interface{}{ref})
	s, err := compound.Serialize(root)
	if err != nil {
		t.Errorf("serialize failed: %+v", err)
		return
	}
	exp := `{"scope":[["0",{"arguments":{"value":1},"functionName":"Image.constant","type":"Invocation"}]],"type":"CompoundValue","value":{"arguments":{"bandSelectors":[{"type":"ValueRef","value":"0"}],"input":{"type":"ValueRef","value":"0"}},"functionName":"Image.select","type":"Invocation"}}`
	if s != exp {
		t.Errorf("unexpected output:\nexp: %s\ngot: %s", exp, s)
		return
	}

	// decoding resolves the references and inlines them
	decoded, err := Decode(data, []byte(s))
	if err != nil {
		t.Errorf("decode failed: %+v", err)
		return
	}
	inlined, err := Serialize(decoded)
	if err != nil {
		t.Errorf("serialize failed: %+v", err)
		return
	}
	direct, err := Serialize(invoke(t, data, "Image.select", image, []interface{}{image}))
	if err != nil {
		t.Errorf("serialize failed: %+v", err)
		return
	}
	if inlined != direct {
		t.Errorf("decoded compound does not match:\nexp: %s\ngot: %s", direct, inlined)
	}

	// without any bound entries the bare value is produced
	if s, err := NewCompound().Serialize(1); err != nil || s != "1" {
		t.Errorf("unexpected output: %s, %v", s, err)
	}
}

func TestSerializeCloud0(t *testing.T) {
	data := testData(t)
	image := invoke(t, data, "Image.constant", nil, 1)
	out := invoke(t, data, "Image.select", image, []interface{}{"B1", "B2"})
	s, err := SerializeCloud(out)
	if err != nil {
		t.Errorf("serialize failed: %+v", err)
		return
	}
	exp := `{"result":"1","values":{"0":{"functionInvocationValue":{"arguments":{"value":{"constantValue":1}},"functionName":"Image.constant"}},"1":{"functionInvocationValue":{"arguments":{"bandSelectors":{"constantValue":["B1","B2"]},"input":{"valueReference":"0"}},"functionName":"Image.select"}}}}`
	if s != exp {
		t.Errorf("unexpected output:\nexp: %s\ngot: %s", exp, s)
	}
}

func TestCloudSharing0(t *testing.T) {
	data := testData(t)
	a := invoke(t, data, "Image.constant", nil, 1)
	b := invoke(t, data, "Image.constant", nil, 1) // identical, but built twice
	out := invoke(t, data, "Image.select", a, []interface{}{b, "B1"})
	node, err := EncodeCloud(out)
	if err != nil {
		t.Errorf("encode failed: %+v", err)
		return
	}
	values := node["values"].(map[string]interface{})
	if len(values) != 3 { // constant, array, select
		t.Errorf("expected three values, got: %s", spew.Sdump(values))
	}
}

func TestCloudCatalogFunc0(t *testing.T) {
	data := testData(t)
	fn, err := ast.NewCatalogFunc(data, "Feature.buffer")
	if err != nil {
		t.Errorf("lookup failed: %+v", err)
		return
	}
	table := invoke(t, data, "Collection.loadTable", nil, "users/foo/fields")
	out := invoke(t, data, "Collection.map", table, fn)

	s, err := Serialize(out)
	if err != nil {
		t.Errorf("serialize failed: %+v", err)
		return
	}
	exp := `{"arguments":{"baseAlgorithm":"Feature.buffer","collection":{"arguments":{"tableId":"users/foo/fields"},"functionName":"Collection.loadTable","type":"Invocation"}},"functionName":"Collection.map","type":"Invocation"}`
	if s != exp {
		t.Errorf("unexpected output:\nexp: %s\ngot: %s", exp, s)
	}

	c1, err := SerializeCloud(out)
	if err != nil {
		t.Errorf("serialize failed: %+v", err)
		return
	}
	decoded, err := DecodeCloud(data, []byte(c1))
	if err != nil {
		t.Errorf("decode failed: %+v", err)
		return
	}
	c2, err := SerializeCloud(decoded)
	if err != nil || c1 != c2 {
		t.Errorf("round trip is not byte-identical:\nexp: %s\ngot: %s (%v)", c1, c2, err)
	}
}

func TestDecodeCloudErrors0(t *testing.T) {
	data := testData(t)
	testCases := []struct {
		name string
		json string
		fail error
	}{
		{"cycle", `{"result":"0","values":{"0":{"valueReference":"0"}}}`, interfaces.ErrCyclicReference},
		{"missing", `{"result":"1","values":{"0":{"constantValue":1}}}`, interfaces.ErrUnknownValueRef},
		{"unknown node", `{"result":"0","values":{"0":{"frobnicate":1}}}`, interfaces.ErrUnknownEncodedType},
		{"two fields", `{"result":"0","values":{"0":{"constantValue":1,"valueReference":"0"}}}`, interfaces.ErrMalformedNode},
		{"unknown function", `{"result":"0","values":{"0":{"functionInvocationValue":{"functionName":"Nope","arguments":{}}}}}`, interfaces.ErrUnknownFunction},
		{"no result", `{"values":{}}`, interfaces.ErrMalformedNode},
	}
	for index, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeCloud(data, []byte(tc.json)); !errors.Is(err, tc.fail) {
				t.Errorf("test #%d: expected %v, got: %v", index, tc.fail, err)
			}
		})
	}
}

func TestCannotEncode0(t *testing.T) {
	type opaque struct{ x int }
	if _, err := Serialize(&opaque{}); !errors.Is(err, interfaces.ErrCannotEncode) {
		t.Errorf("expected cannot encode, got: %v", err)
	}
	if _, err := SerializeCloud(map[int]int{1: 2}); !errors.Is(err, interfaces.ErrCannotEncode) {
		t.Errorf("expected cannot encode, got: %v", err)
	}
}
