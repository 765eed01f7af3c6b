/*
 * JuiceFS, Copyright 2021 Juicedata, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"sort"

	"github.com/matteo027/remote-file-system/pkg/backing"
	"github.com/matteo027/remote-file-system/pkg/meta"
	"github.com/matteo027/remote-file-system/pkg/pathcodec"
	"github.com/urfave/cli/v2"
)

func checkFlags() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "check consistency between the metadata store and the backing filesystem",
		ArgsUsage: "META-URL ROOT-DIR",
		Action:    check,
	}
}

// check walks every Path row reachable from the root and confirms the
// backing filesystem agrees: the entry exists and its lstat inode matches
// the bound File row. Mismatches are reported, not repaired, matching the
// server's own policy of never silently reconciling metadata and backing
// state.
func check(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	if ctx.Args().Len() < 2 {
		return fmt.Errorf("META-URL and ROOT-DIR are needed")
	}

	m, err := meta.Open(ctx.Args().Get(0))
	if err != nil {
		logger.Fatalf("open meta store: %s", err)
	}
	defer m.Close()

	b, err := backing.New(ctx.Args().Get(1))
	if err != nil {
		logger.Fatalf("open backing store: %s", err)
	}
	codec := pathcodec.New(ctx.Args().Get(1))

	root, err := m.FindPath("/")
	if err != nil {
		logger.Fatalf("find root: %s", err)
	}
	if root == nil {
		logger.Fatal("metadata store has no root path")
	}

	var broken []string
	var checked int
	err = walkPaths(m, "/", func(path string, f *meta.File) {
		checked++
		st, serr := b.Lstat(codec.ToFsPath(path))
		if serr != nil {
			broken = append(broken, fmt.Sprintf("%s: lstat failed: %v", path, serr))
			return
		}
		if backing.InoOf(st) != f.Ino {
			broken = append(broken, fmt.Sprintf("%s: metadata ino %s, backing ino %s", path, f.Ino, backing.InoOf(st)))
		}
	})
	if err != nil {
		logger.Fatalf("walk: %s", err)
	}

	logger.Infof("checked %d entries", checked)
	if len(broken) == 0 {
		logger.Infof("no inconsistencies found")
		return nil
	}
	sort.Strings(broken)
	for _, line := range broken {
		logger.Errorf("%s", line)
	}
	return fmt.Errorf("%d inconsistencies found", len(broken))
}

// walkPaths visits dirPath and, if it is a directory, recurses into its
// children, driving the walk entirely off MetaStore rows: FindPath and
// FindFileByIno are the lookups the core uses at request time, and
// ChildPathsOf lists a directory's children from the Path table.
func walkPaths(m *meta.Store, dirPath string, visit func(string, *meta.File)) error {
	row, err := m.FindPath(dirPath)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("no path row for %q", dirPath)
	}
	f, err := m.FindFileByIno(row.Ino)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("no file row for ino %q at %q", row.Ino, dirPath)
	}
	visit(dirPath, f)
	if f.Type != meta.TypeDirectory {
		return nil
	}
	children, err := m.ChildPathsOf(dirPath)
	if err != nil {
		return err
	}
	sort.Strings(children)
	for _, child := range children {
		if err := walkPaths(m, child, visit); err != nil {
			return err
		}
	}
	return nil
}
