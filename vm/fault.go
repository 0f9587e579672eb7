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

package vm

import (
	"fmt"
	"strconv"

	"github.com/db47h/brainthread/diag"
	"github.com/pkg/errors"
)

// FaultKind classifies runtime faults.
type FaultKind int

// Fault kinds.
const (
	FaultUnknown FaultKind = iota
	FaultAlloc
	FaultRange
	FaultUndefinedFunc
	FaultDuplicateFunc
	FaultCallStack
	FaultHeapOverflow
	FaultFormat
	FaultFork
	FaultJoin
	FaultIO
)

var faultCodes = [...]diag.Code{
	FaultUnknown:       diag.UnknownFault,
	FaultAlloc:         diag.AllocFailure,
	FaultRange:         diag.RangeExceeded,
	FaultUndefinedFunc: diag.UndefinedFunction,
	FaultDuplicateFunc: diag.DuplicateFunction,
	FaultCallStack:     diag.CallStackOverflow,
	FaultHeapOverflow:  diag.HeapOverflow,
	FaultFormat:        diag.InvalidFormat,
	FaultFork:          diag.ForkFailure,
	FaultJoin:          diag.JoinFailure,
	FaultIO:            diag.StreamFailure,
}

// Code returns the diagnostic code for faults of kind k.
func (k FaultKind) Code() diag.Code {
	if k >= 0 && int(k) < len(faultCodes) {
		return faultCodes[k]
	}
	return diag.UnknownFault
}

func (k FaultKind) String() string {
	return k.Code().String()
}

// Errors carried by fork faults.
var (
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrInvalidArgument   = errors.New("invalid argument")
)

// Fault is a runtime fault. A fault terminates the process that raised it and
// nothing else.
//
// Value holds the numeric context of the fault: the offending cursor position,
// function id, stack depth, etc.
type Fault struct {
	Kind    FaultKind
	PC      int
	Process uint64
	Value   int64
	Err     error
}

func newFault(kind FaultKind, value int64, err error) *Fault {
	return &Fault{Kind: kind, PC: -1, Value: value, Err: err}
}

func (f *Fault) Error() string {
	s := "process " + strconv.FormatUint(f.Process, 10) + ": " + f.Kind.String()
	if f.PC >= 0 {
		s += " @pc=" + strconv.Itoa(f.PC)
	}
	if f.Err != nil {
		s += ": " + f.Err.Error()
	}
	return s
}

// faultCause returns the error carried by err if it is a *Fault, err
// otherwise.
func faultCause(err error) error {
	var f *Fault
	if errors.As(err, &f) && f.Err != nil {
		return f.Err
	}
	return err
}

// Unwrap returns the underlying error.
func (f *Fault) Unwrap() error { return f.Err }

// Message converts the fault to a diagnostic.
func (f *Fault) Message() diag.Message {
	text := "process " + strconv.FormatUint(f.Process, 10)
	if f.Err != nil {
		text += ": " + f.Err.Error()
	}
	return diag.New(f.Kind.Code(), f.PC, text)
}

// Format implements fmt.Formatter. The %+v verb also prints the stack trace
// of the underlying error, if any.
func (f *Fault) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && f.Err != nil {
			fmt.Fprintf(s, "process %d: %v @pc=%d: %+v", f.Process, f.Kind, f.PC, f.Err)
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, f.Error())
	case 'q':
		fmt.Fprintf(s, "%q", f.Error())
	}
}
