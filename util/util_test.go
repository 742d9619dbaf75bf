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

package util

import (
	"errors"
	"reflect"
	"testing"
)

func TestError0(t *testing.T) {
	const errFoo = Error("foo")
	var err error = errFoo
	if err.Error() != "foo" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, errFoo) {
		t.Errorf("const error did not match itself")
	}
}

func TestStrInList0(t *testing.T) {
	if !StrInList("b", []string{"a", "b", "c"}) {
		t.Errorf("expected to find needle")
	}
	if StrInList("d", []string{"a", "b", "c"}) {
		t.Errorf("did not expect to find needle")
	}
	if StrInList("a", nil) {
		t.Errorf("did not expect to find needle in nil list")
	}
}

func TestStrFilterElementsInList0(t *testing.T) {
	in := []string{"a", "b", "c", "d"}
	out := []string{"a", "d"}
	if x := StrFilterElementsInList([]string{"b", "c"}, in); !reflect.DeepEqual(x, out) {
		t.Errorf("expected: %v, got: %v", out, x)
	}
}

func TestStrListIntersection0(t *testing.T) {
	testCases := []struct {
		list1 []string
		list2 []string
		out   []string
	}{
		{[]string{"a", "b", "c"}, []string{"c", "a"}, []string{"a", "c"}},
		{[]string{"a", "b"}, []string{"x", "y"}, []string{}},
		{[]string{}, []string{"x"}, []string{}},
	}
	for index, tc := range testCases {
		if x := StrListIntersection(tc.list1, tc.list2); !reflect.DeepEqual(x, tc.out) {
			t.Errorf("test #%d: expected: %v, got: %v", index, tc.out, x)
		}
	}
}

func TestStrMapKeys0(t *testing.T) {
	m := map[string]interface{}{
		"zed":   1,
		"alpha": nil,
		"mid":   "x",
	}
	out := []string{"alpha", "mid", "zed"}
	if x := StrMapKeys(m); !reflect.DeepEqual(x, out) {
		t.Errorf("expected: %v, got: %v", out, x)
	}
}
