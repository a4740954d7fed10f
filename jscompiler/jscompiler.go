/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
// Package jscompiler runs the Closure Compiler jar over a list of sources.
package jscompiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// MinJavaVersion is the oldest Java major version the compiler runs on.
const MinJavaVersion = 7

var (
	ErrJavaTooOld         = errors.New("closure compiler requires java 7 or higher")
	ErrUnknownJavaVersion = errors.New("unable to determine java version")
)

// CompileError reports a compiler process that exited unsuccessfully.
type CompileError struct {
	Err    error
	Stderr string
}

func (e *CompileError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("closure compiler failed: %v", e.Err)
	}
	return fmt.Sprintf("closure compiler failed: %v\n%s", e.Err, e.Stderr)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Runner executes a program and returns its stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Compiler invokes the Closure Compiler.
type Compiler struct {
	// Java is the java executable. Defaults to "java".
	Java string
	// JarPath is the compiler jar.
	JarPath string
	// JVMFlags are passed to java before -jar.
	JVMFlags []string
	// Flags are passed to the compiler after the sources.
	Flags []string
	// Runner executes processes. Defaults to ExecRunner.
	Runner Runner
}

func (c *Compiler) java() string {
	if c.Java == "" {
		return "java"
	}
	return c.Java
}

func (c *Compiler) runner() Runner {
	if c.Runner == nil {
		return ExecRunner{}
	}
	return c.Runner
}

// Args returns the java arguments that compile sourcePaths.
func (c *Compiler) Args(sourcePaths []string) []string {
	args := make([]string, 0, len(c.JVMFlags)+2+2*len(sourcePaths)+len(c.Flags))
	args = append(args, c.JVMFlags...)
	args = append(args, "-jar", c.JarPath)
	for _, p := range sourcePaths {
		args = append(args, "--js", p)
	}
	return append(args, c.Flags...)
}

// Compile checks the java version and compiles sourcePaths, returning the
// compiler's stdout.
func (c *Compiler) Compile(ctx context.Context, sourcePaths []string) ([]byte, error) {
	if err := c.checkJava(ctx); err != nil {
		return nil, err
	}

	args := c.Args(sourcePaths)
	slog.Debug("running closure compiler", "java", c.java(), "args", strings.Join(args, " "))

	stdout, stderr, err := c.runner().Run(ctx, c.java(), args...)
	if err != nil {
		return nil, &CompileError{Err: err, Stderr: string(stderr)}
	}
	return stdout, nil
}

func (c *Compiler) checkJava(ctx context.Context) error {
	// java -version prints to stderr.
	stdout, stderr, err := c.runner().Run(ctx, c.java(), "-version")
	if err != nil {
		return fmt.Errorf("running %s -version: %w", c.java(), err)
	}

	major, err := ParseJavaVersion(string(stderr) + string(stdout))
	if err != nil {
		return err
	}
	slog.Debug("detected java", "version", major)
	if major < MinJavaVersion {
		return fmt.Errorf("%w: found java %d", ErrJavaTooOld, major)
	}
	return nil
}

var javaVersionPattern = regexp.MustCompile(`version "([^"]+)"`)

// ParseJavaVersion extracts the major version from java -version output.
// Legacy versions such as "1.8.0_292" report their minor number as major.
func ParseJavaVersion(output string) (int, error) {
	m := javaVersionPattern.FindStringSubmatch(output)
	if m == nil {
		return 0, ErrUnknownJavaVersion
	}
	version := m[1]

	if rest, ok := strings.CutPrefix(version, "1."); ok {
		version = rest
	}
	end := 0
	for end < len(version) && version[end] >= '0' && version[end] <= '9' {
		end++
	}
	major, err := strconv.Atoi(version[:end])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownJavaVersion, m[1])
	}
	return major, nil
}
