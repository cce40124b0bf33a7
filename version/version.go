// SPDX-License-Identifier: Apache-2.0
//
// Copyright 2025 Skein Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Info holds version information for the application.
type Info struct {
	Name        string
	Description string
	GitVersion  string
	GitCommit   string
	BuildDate   string
}

// GetVersionInfo fills an Info from debug.BuildInfo.
func GetVersionInfo(name, description, fallback string) Info {
	info := Info{
		Name:        name,
		Description: description,
		GitVersion:  fallback,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.GitVersion = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.GitCommit = s.Value
		case "vcs.time":
			info.BuildDate = s.Value
		}
	}
	return info
}

func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", i.Name, i.GitVersion)
	if i.GitCommit != "" {
		fmt.Fprintf(&b, " (%s)", i.GitCommit)
	}
	if i.BuildDate != "" {
		fmt.Fprintf(&b, " built %s", i.BuildDate)
	}
	return b.String()
}
