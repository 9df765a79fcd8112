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

// Package buildrecord persists the scheduler's per-input status and the
// previous build's completion time, the comparator the first wave (spec.md
// §4.J) classifies inputs against. Reads and writes of the record file are
// serialized across driver invocations with an advisory file lock, the
// same Lock/RLock shape the teacher's private/pkg/filelock exercises over
// github.com/gofrs/flock.
package buildrecord

import (
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Status is an input's classification against the previous build, per
// spec.md §4.J step 1.
type Status string

const (
	// StatusUpToDate means the input's mtime is not after the previous
	// build's completion time, so it has not changed since that build.
	StatusUpToDate Status = "upToDate"
	// StatusNewlyAdded means the input has no prior record.
	StatusNewlyAdded Status = "newlyAdded"
	// StatusNeedsCascadingBuild means the input's last build touched an
	// interface-aspect node and so is eligible for speculative expansion.
	StatusNeedsCascadingBuild Status = "needsCascadingBuild"
	// StatusNeedsNonCascadingBuild means the input changed, but only its
	// last known implementation-aspect surface.
	StatusNeedsNonCascadingBuild Status = "needsNonCascadingBuild"
)

// InputRecord is one input's persisted status and modification time as of
// the last build that considered it.
type InputRecord struct {
	Status  Status    `yaml:"status"`
	ModTime time.Time `yaml:"modTime"`
}

// Record is the whole build record: a build ID, the time the previous
// build completed, the per-input table, and a validity flag a write
// failure can clear to force the next invocation to fall back to a
// from-scratch build (spec.md §7's write-failure handling).
type Record struct {
	BuildID      string                 `yaml:"buildID"`
	BuildTime    time.Time              `yaml:"buildTime"`
	Inputs       map[string]InputRecord `yaml:"inputs"`
	GraphInvalid bool                   `yaml:"graphInvalid"`
}

// New returns an empty Record with a freshly generated build ID, used when
// no previous record exists (a from-scratch build).
func New() *Record {
	return &Record{
		BuildID: uuid.NewString(),
		Inputs:  make(map[string]InputRecord),
	}
}

// Load reads and parses the build record at path, locking it for shared
// read access for the duration of the read. A missing file is not an
// error: it returns a fresh Record, matching a first-ever build.
func Load(path string) (*Record, error) {
	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("buildrecord: locking %s: %w", path, err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("buildrecord: reading %s: %w", path, err)
	}

	var record Record
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("buildrecord: decoding %s: %w", path, err)
	}
	if record.Inputs == nil {
		record.Inputs = make(map[string]InputRecord)
	}
	return &record, nil
}

// Save writes r to path, exclusively locked for the duration of the
// write, so two concurrent driver invocations never interleave writes to
// the same build record.
func Save(path string, r *Record) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("buildrecord: locking %s: %w", path, err)
	}
	defer lock.Unlock()

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("buildrecord: encoding: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("buildrecord: writing %s: %w", path, err)
	}
	return nil
}

// Classify reports the Status of input given its current modification
// time and the record's prior state, per spec.md §4.J step 1: an
// upToDate input whose mtime predates the previous build's completion is
// skipped; anything else is scheduled.
func (r *Record) Classify(input string, modTime time.Time) Status {
	prev, ok := r.Inputs[input]
	if !ok {
		return StatusNewlyAdded
	}
	if modTime.Before(r.BuildTime) || modTime.Equal(r.BuildTime) {
		return StatusUpToDate
	}
	if prev.Status == StatusNeedsCascadingBuild {
		return StatusNeedsCascadingBuild
	}
	return StatusNeedsNonCascadingBuild
}
