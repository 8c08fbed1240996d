/*
Copyright 2020 Monlab Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package errors

import (
	"errors"
	"fmt"
)

// Reason classifies an Error so callers can branch on the failure mode
// without parsing messages.
type Reason string

const (
	// ReasonInvalidArgument marks mutually exclusive or malformed
	// parameters: a single level and a level list given together, an
	// empty explicit level list, an unparseable frequency string, or an
	// out-of-range percentage.
	ReasonInvalidArgument Reason = "InvalidArgument"
	// ReasonIncompatibleOperands marks arithmetic between two result
	// sets whose header part names or row/column sets don't overlap.
	ReasonIncompatibleOperands Reason = "IncompatibleOperands"
	// ReasonTypeMismatch marks a non-numeric, non-result operand.
	ReasonTypeMismatch Reason = "TypeMismatch"
	// ReasonInternal is the catch-all for wrapped collaborator failures.
	ReasonInternal Reason = "Internal"
)

type Error struct {
	Reason  Reason `json:"reason" description:"error classification"`
	Message string `json:"message" description:"error message"`
}

func (e Error) Error() string {
	return e.Message
}

func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return Error{Reason: ReasonInternal, Message: err.Error()}
}

func New(format string, args ...interface{}) error {
	return Error{Reason: ReasonInternal, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidArgument(format string, args ...interface{}) error {
	return Error{Reason: ReasonInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func NewIncompatibleOperands(format string, args ...interface{}) error {
	return Error{Reason: ReasonIncompatibleOperands, Message: fmt.Sprintf(format, args...)}
}

func NewTypeMismatch(format string, args ...interface{}) error {
	return Error{Reason: ReasonTypeMismatch, Message: fmt.Sprintf(format, args...)}
}

func GetReason(err error) Reason {
	var e Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonInternal
}

func IsInvalidArgument(err error) bool {
	return GetReason(err) == ReasonInvalidArgument
}

func IsIncompatibleOperands(err error) bool {
	return GetReason(err) == ReasonIncompatibleOperands
}

func IsTypeMismatch(err error) bool {
	return GetReason(err) == ReasonTypeMismatch
}
