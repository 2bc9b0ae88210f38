// Copyright 2025 walteh LLC
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

package transfer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestPlanRejectsRemoteToRemoteWithoutIO(t *testing.T) {
	f := newFixture(t, nil)
	p := NewPlanner(f.backends, f.events)

	tests := []struct {
		name    string
		sources []string
	}{
		{name: "single_remote", sources: []string{"vos:/a.txt"}},
		{name: "remote_with_cutout", sources: []string{"vos:/img.fits[1:2]"}},
		{name: "mixed_sources", sources: []string{"/local.txt", "vos:/data/*"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Plan(testContext(t), Spec{Sources: tt.sources, Destination: "vos:/dst"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCrossBackend))
			assert.Equal(t, KindCrossBackend, KindOf(err))
		})
	}

	assert.Zero(t, f.backends.lookups, "no adapter may be consulted")
	assert.Empty(t, f.store.ListCalls)
}

func TestPlanDestinationRules(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, f *fixture)
		spec     Spec
		wantDest []string
		wantErr  error
	}{
		{
			name: "file_into_existing_directory",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, afero.WriteFile(f.fs, "/work/f.txt", []byte("x"), 0o644))
				f.store.PutDir("/d")
			},
			spec:     Spec{Sources: []string{"/work/f.txt"}, Destination: "vos:/d"},
			wantDest: []string{"vos:/d/f.txt"},
		},
		{
			name: "file_onto_trailing_separator",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, afero.WriteFile(f.fs, "/work/f.txt", []byte("x"), 0o644))
			},
			spec:     Spec{Sources: []string{"/work/f.txt"}, Destination: "vos:/new/"},
			wantDest: []string{"vos:/new/f.txt"},
		},
		{
			name: "file_renamed",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, afero.WriteFile(f.fs, "/work/f.txt", []byte("x"), 0o644))
			},
			spec:     Spec{Sources: []string{"/work/f.txt"}, Destination: "vos:/g.txt"},
			wantDest: []string{"vos:/g.txt"},
		},
		{
			name: "directory_into_existing_directory",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, f.fs.MkdirAll("/work/src", 0o755))
				f.store.PutDir("/dst")
			},
			spec:     Spec{Sources: []string{"/work/src"}, Destination: "vos:/dst"},
			wantDest: []string{"vos:/dst/src"},
		},
		{
			name: "directory_to_missing_destination",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, f.fs.MkdirAll("/work/src", 0o755))
			},
			spec:     Spec{Sources: []string{"/work/src"}, Destination: "vos:/dst"},
			wantDest: []string{"vos:/dst"},
		},
		{
			name: "directory_onto_file",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, f.fs.MkdirAll("/work/src", 0o755))
				f.store.PutFile("/dst", []byte("x"))
			},
			spec:    Spec{Sources: []string{"/work/src"}, Destination: "vos:/dst"},
			wantErr: ErrDirectoryOntoFile,
		},
		{
			name: "many_sources_missing_destination",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, afero.WriteFile(f.fs, "/work/a.txt", []byte("a"), 0o644))
				require.NoError(t, afero.WriteFile(f.fs, "/work/b.txt", []byte("b"), 0o644))
			},
			spec:    Spec{Sources: []string{"/work/a.txt", "/work/b.txt"}, Destination: "vos:/nowhere"},
			wantErr: ErrAmbiguousDestination,
		},
		{
			name: "remote_glob_keeps_cutout",
			setup: func(t *testing.T, f *fixture) {
				f.store.PutFile("/data/a.fits", []byte("a"))
				f.store.PutFile("/data/b.fits", []byte("b"))
				f.store.PutFile("/data/c.txt", []byte("c"))
				require.NoError(t, f.fs.MkdirAll("/out", 0o755))
			},
			spec:     Spec{Sources: []string{"vos:/data/*.fits[1:2]"}, Destination: "/out"},
			wantDest: []string{"/out/a.fits", "/out/b.fits"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			tt.setup(t, f)

			plan, err := NewPlanner(f.backends, f.events).Plan(testContext(t), tt.spec)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Zero(t, f.backends.transfers)
				return
			}
			require.NoError(t, err)

			var got []string
			for _, task := range plan.Tasks {
				got = append(got, task.Destination.String())
			}
			assert.Equal(t, tt.wantDest, got)
		})
	}
}

func TestPlanCutoutReappendedToEveryMatch(t *testing.T) {
	f := newFixture(t, nil)
	f.store.PutFile("/data/a.fits", []byte("a"))
	f.store.PutFile("/data/b.fits", []byte("b"))
	require.NoError(t, f.fs.MkdirAll("/out", 0o755))

	plan, err := NewPlanner(f.backends, f.events).Plan(testContext(t), Spec{
		Sources:     []string{"vos:/data/*.fits(10.5,20.5,0.1)"},
		Destination: "/out",
	})
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 2)
	for _, task := range plan.Tasks {
		assert.Equal(t, "(10.5,20.5,0.1)", task.Source.Cutout().Raw)
	}
	assert.Equal(t, "vos:/data/a.fits(10.5,20.5,0.1)", plan.Tasks[0].Source.String())
}

func TestPlanRejectedSources(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, afero.WriteFile(f.fs, "/work/ok.txt", []byte("x"), 0o644))
	f.store.PutDir("/dst")

	plan, err := NewPlanner(f.backends, f.events).Plan(testContext(t), Spec{
		Sources:     []string{"/work/missing.txt", "/work/ok.txt"},
		Destination: "vos:/dst",
	})
	require.NoError(t, err)

	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, "vos:/dst/ok.txt", plan.Tasks[0].Destination.String())

	outcomes := plan.Result.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Equal(t, KindAccess, outcomes[0].Kind)
	assert.Equal(t, 13, plan.Result.ExitStatus())
	assert.Equal(t, 1, f.events.count(EventWarning))
}

func TestPlanHeadNeedsRemoteSource(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, afero.WriteFile(f.fs, "/work/a.txt", []byte("x"), 0o644))
	require.NoError(t, f.fs.MkdirAll("/out", 0o755))
	f.store.PutFile("/img.fits", []byte("SIMPLE"))

	plan, err := NewPlanner(f.backends, f.events).Plan(testContext(t), Spec{
		Sources:     []string{"/work/a.txt", "vos:/img.fits"},
		Destination: "/out",
		Options:     Options{HeadOnly: true},
	})
	require.NoError(t, err)

	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, "vos:/img.fits", plan.Tasks[0].Source.String())
	assert.Equal(t, 1, plan.Result.Count(StatusSkipped))
	assert.Zero(t, plan.Result.ExitStatus())
}

func TestPlanSkipsSymlinkSourcesWithoutFollow(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.txt"), []byte("r"), 0o644))
	require.NoError(t, os.Symlink("real.txt", filepath.Join(dir, "good-link")))
	require.NoError(t, os.Symlink("nowhere.txt", filepath.Join(dir, "broken-link")))

	tests := []struct {
		name       string
		link       string
		follow     bool
		wantTasks  int
		wantStatus Status
		wantExit   int
	}{
		{name: "valid_target", link: "good-link", wantStatus: StatusSkipped},
		{name: "broken_target", link: "broken-link", wantStatus: StatusSkipped},
		{name: "valid_target_followed", link: "good-link", follow: true, wantTasks: 1},
		{name: "broken_target_followed", link: "broken-link", follow: true, wantStatus: StatusFailed, wantExit: 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, afero.NewOsFs())

			plan, err := NewPlanner(f.backends, f.events).Plan(testContext(t), Spec{
				Sources:     []string{filepath.Join(dir, tt.link)},
				Destination: "vos:/x",
				Options:     Options{FollowLinks: tt.follow},
			})
			require.NoError(t, err)

			assert.Len(t, plan.Tasks, tt.wantTasks)
			assert.Equal(t, tt.wantExit, plan.Result.ExitStatus())
			if tt.wantTasks > 0 {
				assert.Empty(t, plan.Result.Outcomes())
				return
			}

			outcomes := plan.Result.Outcomes()
			require.Len(t, outcomes, 1)
			assert.Equal(t, tt.wantStatus, outcomes[0].Status)
			if tt.wantStatus == StatusSkipped {
				assert.Equal(t, ReasonSymlink, outcomes[0].Reason)
			}
		})
	}
}

func TestPlanExpandsOnlyPatterns(t *testing.T) {
	f := newFixture(t, nil)
	f.store.PutFile("/data/a.fits", []byte("a"))
	f.store.PutFile("/data/b.fits", []byte("b"))
	require.NoError(t, f.fs.MkdirAll("/out", 0o755))

	plan, err := NewPlanner(f.backends, f.events).Plan(testContext(t), Spec{
		Sources:     []string{"vos:/data/a.fits", "vos:/data/?.fits"},
		Destination: "/out",
	})
	require.NoError(t, err)

	require.Len(t, plan.Tasks, 3)
	assert.Equal(t, []string{"vos:/data/?.fits"}, f.store.GlobCalls)
}
