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

// Package compiler compiles brainfuck family source code to vm.Tape
// instructions.
//
// Supported operators:
//
//	char	opcode	dialects	description
//	----	------	--------	------------------------------------------------------
//	>	>	all		move the cursor right
//	<	<	all		move the cursor left
//	+	+	all		increment the current cell
//	-	-	all		decrement the current cell
//	.	.	all		write the current cell as a byte
//	,	,	all		read a byte into the current cell
//	[	[	all		jump past the matching ] if the current cell is 0
//	]	]	all		jump back to the matching [ if the current cell is not 0
//	(	(	p, t		define function #cell, its body ends at the matching )
//	)	)	p, t		return from the current function
//	:	:	p, t		call function #cell
//	Y	fork	f		fork (Brainfork)
//	{	fork	t		fork (BrainThread)
//	}	join	t		wait for all children forked by this process
//	!	end	t		terminate the current process
//	&	push	t		push the current cell on the heap
//	^	pop	t		pop the heap into the current cell
//	~	swap	t		swap the two topmost heap values
//	*	shared	t		the next heap operator uses the shared heap
//	=	=	t		write the current cell in base 10
//	?	?	t		read a base 10 integer into the current cell
//	#	#	all, debug	dump the memory around the cursor
//	@	@	t, debug	dump the local and shared heaps
//
// p: PBrain, f: Brainfork, t: BrainThread. Any other character is a comment.
//
// On fork, the current cell of the parent is set to 0. The child starts at the
// next instruction with its cursor one cell to the right, on a cell set to 1.
package compiler
