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

package compiler_test

import (
	"os"

	"github.com/db47h/brainthread/compiler"
)

func ExampleDisassembleAll() {
	code := `
	+++       set cell to 3
	[->+<]    move it right
	>(--.)    define function 1
	*&:       push on the shared heap then call
	`
	t, ok := compiler.Compile([]byte(code),
		compiler.WithDialect(compiler.BrainThread),
		compiler.Optimize(compiler.Peephole))
	if !ok {
		return
	}
	compiler.DisassembleAll(t, os.Stdout)

	// Output:
	//          0	+ x3
	//          1	[ -> 6
	//          2	-
	//          3	>
	//          4	+
	//          5	<
	//          6	] -> 1
	//          7	>
	//          8	( -> 11
	//          9	- x2
	//         10	.
	//         11	) -> 8
	//         12	shared
	//         13	spush -> 12
	//         14	:
}
