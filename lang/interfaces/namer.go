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

import (
	"strconv"
	"sync"
)

// Namer hands out the serial numbers of mapping variables. The serial only ever
// increases, so that nested mapping functions never produce colliding names,
// even when one is embedded inside the body of another before either one is
// finalized. It is safe for concurrent use.
type Namer struct {
	mutex sync.Mutex
	next  uint64
}

// NewNamer builds a new namer which starts counting at zero. The zero value is
// also ready to use, but a Namer must not be copied after first use.
func NewNamer() *Namer {
	return &Namer{}
}

// Reserve returns the next serial number. It is never handed out again unless
// Reset is called.
func (obj *Namer) Reserve() uint64 {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	serial := obj.next
	obj.next++
	return serial
}

// Reset sets the counter back to zero. This exists for tests only.
func (obj *Namer) Reset() {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	obj.next = 0
}

// MappingVarName returns the variable name which belongs to a reserved serial.
func MappingVarName(serial uint64) string {
	return MappingVarPrefix + strconv.FormatUint(serial, 10)
}
