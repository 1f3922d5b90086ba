// Copyright 2026 The ScalarVM Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scalarvmcmd

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedCommandsAreRegistered(t *testing.T) {
	var names []string
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	assert.Equal(t, []string{"disasm", "list-modules", "run", "version"}, names)
}

func TestRegisterCommandPanicsOnDuplicateName(t *testing.T) {
	assert.Panics(t, func() {
		RegisterCommand(Command{Name: "run"})
	})
}
