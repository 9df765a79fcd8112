// Copyright 2020 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package app provides application primitives.
//
// This abstracts away the inputs and outputs of an application so that a
// command's Run function never touches os.Args, os.Environ, os.Stdin, or
// os.Exit directly, and is therefore trivially testable.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"sort"
)

// EnvContainer provides environment variables.
type EnvContainer interface {
	// Env gets the environment variable value for the key.
	//
	// Returns empty if the key is not set or the value is empty.
	Env(key string) string
	// ForEachEnv iterates over all non-empty environment variables and calls f.
	//
	// The order of iteration is undefined.
	ForEachEnv(f func(string, string))
}

// StdinContainer provides stdin.
type StdinContainer interface {
	// Stdin provides input.
	//
	// If no value was passed, this will return io.EOF on any call.
	Stdin() io.Reader
}

// StdoutContainer provides stdout.
type StdoutContainer interface {
	// Stdout provides output.
	//
	// If no value was passed, this will be equivalent to discarding the output.
	Stdout() io.Writer
}

// StderrContainer provides stderr.
type StderrContainer interface {
	// Stderr provides output.
	//
	// If no value was passed, this will be equivalent to discarding the output.
	Stderr() io.Writer
}

// ArgContainer provides arguments.
type ArgContainer interface {
	// NumArgs returns the number of arguments.
	NumArgs() int
	// Arg gets the ith argument.
	//
	// Panics if i < 0 or i >= NumArgs().
	Arg(i int) string
}

// Container is a container for application information.
type Container interface {
	EnvContainer
	StdinContainer
	StdoutContainer
	StderrContainer
	ArgContainer
}

// NewContainer returns a new Container.
func NewContainer(
	env map[string]string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	args ...string,
) Container {
	return newContainer(
		newEnvContainer(env),
		newStdinContainer(stdin),
		newStdoutContainer(stdout),
		newStderrContainer(stderr),
		newArgContainer(args),
	)
}

// NewContainerForOS returns a new Container that uses the OS environment,
// stdin, stdout, stderr, and arguments.
func NewContainerForOS() (Container, error) {
	envContainer, err := NewEnvContainerForOS()
	if err != nil {
		return nil, err
	}
	return newContainer(
		envContainer,
		newStdinContainer(os.Stdin),
		newStdoutContainer(os.Stdout),
		newStderrContainer(os.Stderr),
		newArgContainer(os.Args),
	), nil
}

// NewContainerForArgs returns a new Container that has the base Container's
// values except for the arguments.
func NewContainerForArgs(container Container, args ...string) Container {
	return newContainer(
		container,
		container,
		container,
		container,
		newArgContainer(args),
	)
}

// NewEnvContainer returns a new EnvContainer.
func NewEnvContainer(m map[string]string) EnvContainer {
	return newEnvContainer(m)
}

// NewEnvContainerForOS returns a new EnvContainer for the OS environment.
func NewEnvContainerForOS() (EnvContainer, error) {
	return newEnvContainerForEnviron(os.Environ())
}

// NewArgContainer returns a new ArgContainer.
func NewArgContainer(args ...string) ArgContainer {
	return newArgContainer(args)
}

// NewStdinContainer returns a new StdinContainer.
func NewStdinContainer(reader io.Reader) StdinContainer {
	return newStdinContainer(reader)
}

// Environ returns the sorted environment variable strings for the
// EnvContainer in "key=value" form, as returned by os.Environ.
func Environ(envContainer EnvContainer) []string {
	var environ []string
	envContainer.ForEachEnv(func(key string, value string) {
		environ = append(environ, key+"="+value)
	})
	sort.Strings(environ)
	return environ
}

// Args returns the arguments for the ArgContainer.
func Args(argContainer ArgContainer) []string {
	args := make([]string, argContainer.NumArgs())
	for i := range args {
		args[i] = argContainer.Arg(i)
	}
	return args
}

// NewError returns a new error that results in the given exit code when
// returned from a Run function passed to Main or Run.
//
// If exitCode is 0, this resolves to exit code 1 with a message describing
// the misuse.
func NewError(exitCode int, message string) error {
	return newAppError(exitCode, message)
}

// GetExitCode gets the exit code for the error.
//
// If err is nil, this returns 0.
// If err is the result of NewError, this returns the exit code from NewError.
// Otherwise, this returns 1.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *appError
	if errors.As(err, &appErr) {
		return appErr.exitCode
	}
	return 1
}

// Main runs the application using the OS container, calling os.Exit on the
// return value of f.
func Main(ctx context.Context, f func(context.Context, Container) error) {
	container, err := NewContainerForOS()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	os.Exit(GetExitCode(Run(ctx, container, f)))
}

// Run runs the application using the container.
//
// If f returns an error, Run prints it to the container's stderr and then
// returns it.
func Run(ctx context.Context, container Container, f func(context.Context, Container) error) error {
	err := f(ctx, container)
	if err != nil {
		printError(container, err)
	}
	return err
}
