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

package interfaces

// Field names and type tags of the legacy wire format. These are fixed strings.
const (
	FieldType          = "type"
	FieldValue         = "value"
	FieldScope         = "scope"
	FieldFunction      = "function"
	FieldFunctionName  = "functionName"
	FieldArguments     = "arguments"
	FieldArgumentNames = "argumentNames"
	FieldBody          = "body"

	TagCompoundValue = "CompoundValue"
	TagValueRef      = "ValueRef"
	TagArgumentRef   = "ArgumentRef"
	TagInvocation    = "Invocation"
	TagFunction      = "Function"
	TagDictionary    = "Dictionary"
	TagBytes         = "Bytes"
	TagDate          = "Date"
)

// Field names of the reference-based wire format.
const (
	CloudResult                  = "result"
	CloudValues                  = "values"
	CloudConstantValue           = "constantValue"
	CloudValueReference          = "valueReference"
	CloudArrayValue              = "arrayValue"
	CloudDictionaryValue         = "dictionaryValue"
	CloudFunctionDefinitionValue = "functionDefinitionValue"
	CloudFunctionInvocationValue = "functionInvocationValue"
	CloudArgumentReference       = "argumentReference"
	CloudBytesValue              = "bytesValue"
	CloudFunctionName            = "functionName"
	CloudFunctionReference       = "functionReference"
	CloudArguments               = "arguments"
	CloudArgumentNames           = "argumentNames"
	CloudBody                    = "body"
	CloudInnerValues             = "values"
)

const (
	// MappingVarPrefix is the prefix of every generated mapping variable
	// name. The reserved serial number is appended to it.
	MappingVarPrefix = "_MAPPING_VAR_"

	// LoadByIDFuncName is the pseudo-algorithm which loads a remotely
	// stored computation graph.
	LoadByIDFuncName = "LoadAlgorithmById"

	// LoadByIDArgName is the argument name of the stored graph identifier.
	LoadByIDArgName = "id"

	// DateFuncName is the algorithm used to build a date in the
	// reference-based format.
	DateFuncName = "Date"

	// DateArgName is the argument of DateFuncName which holds milliseconds.
	DateArgName = "value"

	// GeometryFuncPrefix is the prefix of the algorithms which build
	// geometries in the reference-based format.
	GeometryFuncPrefix = "GeometryConstructors."
)
