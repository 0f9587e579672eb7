// This file is part of brainthread - https://github.com/db47h/brainthread
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
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

package vm_test

import (
	"testing"

	"github.com/db47h/brainthread/vm"
)

func TestTape_Splice(t *testing.T) {
	// []+[-]
	tape := compile(t, "[]+[-]", false)
	tape.Delete(0, 2)
	if pos, err := tape.CheckLinks(); err != nil {
		t.Fatalf("broken link at %d: %v", pos, err)
	}
	assertEqualI(t, "begin jump", 3, tape[1].Jump)
	assertEqualI(t, "end jump", 1, tape[3].Jump)

	// replace the loop body, growing the tape
	tape.Splice(2, 1, vm.Ins(vm.OpDec), vm.Ins(vm.OpRight), vm.Ins(vm.OpLeft))
	if pos, err := tape.CheckLinks(); err != nil {
		t.Fatalf("broken link at %d: %v", pos, err)
	}
	assertEqualI(t, "begin jump", 5, tape[1].Jump)

	// removing a loop end unlinks its partner
	tape.Delete(5, 1)
	assertEqualI(t, "unlinked jump", vm.NoJump, tape[1].Jump)
	if _, err := tape.CheckLinks(); err == nil {
		t.Fatal("expected broken links")
	}
}

func TestTape_Splice_outOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	tape := vm.Tape{vm.Ins(vm.OpInc)}
	tape.Splice(1, 1)
}
