// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package persistence implements the external-boundary collaborator (§6)
// that saves and loads the four logical artifacts a task network is made
// of: the attributes register, the hierarchy edge set, the dependency
// edge set, and the next-unused task UID. Each artifact is written as a
// one-line version tag followed by a YAML payload, and the group save is
// atomic: every artifact is written to a temporary sibling file first,
// and only renamed into place once every write has succeeded.
//
// This is the one package in the module that imports os,
// gopkg.in/yaml.v3, and github.com/charmbracelet/log; the core engine
// (graph, attributes, hierarchy, dependency, network, task, priority)
// never logs and never touches a filesystem.
package persistence

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/sixafter/tasknet/attributes"
	"github.com/sixafter/tasknet/taskid"
)

// EnvelopeVersion is the schema version written as the first line of
// every artifact file. A reader that encounters a version it does not
// recognize returns ErrUnsupportedVersion rather than guessing at the
// payload shape.
const EnvelopeVersion = "tasknet/v1"

// ErrUnsupportedVersion is returned when an artifact's version tag does
// not match a version this package knows how to decode.
var ErrUnsupportedVersion = fmt.Errorf("persistence: unsupported envelope version")

// taskAttributes, attributesArtifact, edge, edgeArtifact (shared by the
// hierarchy and dependency files), and uidArtifact are the YAML payload
// shapes. They are kept separate from
// the in-memory types they mirror (attributes.Attributes,
// graph.Edge[taskid.UID]) so a future schema change only touches this
// file, not the engine's own types.
type taskAttributes struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Importance  *int   `yaml:"importance,omitempty"`
	Progress    int    `yaml:"progress"`
}

type attributesArtifact struct {
	Tasks map[taskid.UID]taskAttributes `yaml:"tasks"`
}

type edge struct {
	From taskid.UID `yaml:"from"`
	To   taskid.UID `yaml:"to"`
}

type edgeArtifact struct {
	Tasks []taskid.UID `yaml:"tasks"`
	Edges []edge       `yaml:"edges"`
}

type uidArtifact struct {
	Next taskid.UID `yaml:"next"`
}

// Envelope is the reader/writer for the four-artifact bundle, grounded
// on sixafter-graph/io/io.go's Reader/Writer split generalized from one
// generic graph to the four concrete artifacts this domain has.
type Envelope struct {
	logger *log.Logger
}

// EnvelopeOption configures an Envelope.
type EnvelopeOption func(*Envelope)

// WithLogger overrides the envelope's logger. Defaults to log.Default().
func WithLogger(l *log.Logger) EnvelopeOption {
	return func(e *Envelope) {
		e.logger = l
	}
}

// NewEnvelope returns an Envelope with a default logger.
func NewEnvelope(opts ...EnvelopeOption) *Envelope {
	e := &Envelope{logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WriteAttributes writes the attributes register as a version-tagged
// YAML payload.
func (e *Envelope) WriteAttributes(w io.Writer, view attributes.View) error {
	payload := attributesArtifact{Tasks: make(map[taskid.UID]taskAttributes, view.Len())}
	for _, uid := range view.UIDs() {
		attrs, _ := view.Get(uid)
		var imp *int
		if attrs.Importance != nil {
			v := int(*attrs.Importance)
			imp = &v
		}
		payload.Tasks[uid] = taskAttributes{
			Name:        attrs.Name,
			Description: attrs.Description,
			Importance:  imp,
			Progress:    int(attrs.Progress),
		}
	}
	return writeEnvelope(w, payload)
}

// ReadAttributes decodes an attributes artifact into register, which
// must already have every task the artifact names inserted (ReadAttributes
// only sets name/description/importance/progress, it does not create
// tasks itself, since task creation is the network's responsibility).
func (e *Envelope) ReadAttributes(r io.Reader, register *attributes.Register) error {
	var payload attributesArtifact
	if err := readEnvelope(r, &payload); err != nil {
		return err
	}
	for uid, a := range payload.Tasks {
		if err := register.UpdateName(uid, a.Name); err != nil {
			return fmt.Errorf("persistence: loading attributes for %s: %w", uid, err)
		}
		if err := register.UpdateDescription(uid, a.Description); err != nil {
			return fmt.Errorf("persistence: loading attributes for %s: %w", uid, err)
		}
		if a.Importance != nil {
			imp := attributes.Importance(*a.Importance)
			if err := register.UpdateImportance(uid, &imp); err != nil {
				return fmt.Errorf("persistence: loading attributes for %s: %w", uid, err)
			}
		}
		if err := register.UpdateProgress(uid, attributes.Progress(a.Progress)); err != nil {
			return fmt.Errorf("persistence: loading attributes for %s: %w", uid, err)
		}
	}
	return nil
}

// WriteEdges writes a set of tasks and a set of directed edges between
// them as a version-tagged YAML payload. It is used for both the
// hierarchy graph and the dependency graph; which one is which is a
// matter of which file the caller chooses, not a distinction this
// package's wire format makes.
func (e *Envelope) WriteEdges(w io.Writer, tasks []taskid.UID, edges [][2]taskid.UID) error {
	payload := edgeArtifact{Tasks: tasks, Edges: make([]edge, 0, len(edges))}
	for _, pair := range edges {
		payload.Edges = append(payload.Edges, edge{From: pair[0], To: pair[1]})
	}
	return writeEnvelope(w, payload)
}

// ReadEdges decodes an edge artifact back into its task list and edge
// pairs, in the order the YAML payload lists them.
func (e *Envelope) ReadEdges(r io.Reader) (tasks []taskid.UID, edges [][2]taskid.UID, err error) {
	var payload edgeArtifact
	if err := readEnvelope(r, &payload); err != nil {
		return nil, nil, err
	}
	edges = make([][2]taskid.UID, 0, len(payload.Edges))
	for _, e := range payload.Edges {
		edges = append(edges, [2]taskid.UID{e.From, e.To})
	}
	return payload.Tasks, edges, nil
}

// WriteNextUID writes the next-unused task UID as a version-tagged YAML
// payload.
func (e *Envelope) WriteNextUID(w io.Writer, next taskid.UID) error {
	return writeEnvelope(w, uidArtifact{Next: next})
}

// ReadNextUID decodes a next-UID artifact.
func (e *Envelope) ReadNextUID(r io.Reader) (taskid.UID, error) {
	var payload uidArtifact
	if err := readEnvelope(r, &payload); err != nil {
		return taskid.Zero, err
	}
	return payload.Next, nil
}

// lineReader reads the version tag as a single line, then hands the
// remaining buffered input back to the YAML decoder untouched.
type lineReader struct {
	*bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{Reader: bufio.NewReader(r)}
}

func (l *lineReader) readLine() (string, error) {
	line, err := l.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	return line, nil
}

func writeEnvelope(w io.Writer, payload any) error {
	if _, err := io.WriteString(w, EnvelopeVersion+"\n"); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(payload)
}

func readEnvelope(r io.Reader, payload any) error {
	br := newLineReader(r)
	version, err := br.readLine()
	if err != nil {
		return fmt.Errorf("persistence: reading version tag: %w", err)
	}
	if version != EnvelopeVersion {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}
	dec := yaml.NewDecoder(br)
	return dec.Decode(payload)
}

// Filenames is the set of sibling files SaveAll/LoadAll read and write
// under a single directory.
type Filenames struct {
	Attributes string
	Hierarchy  string
	Dependency string
	NextUID    string
}

// DefaultFilenames is the conventional artifact layout under a save
// directory.
func DefaultFilenames(dir string) Filenames {
	return Filenames{
		Attributes: filepath.Join(dir, "attributes.yaml"),
		Hierarchy:  filepath.Join(dir, "hierarchy.yaml"),
		Dependency: filepath.Join(dir, "dependency.yaml"),
		NextUID:    filepath.Join(dir, "next_uid.yaml"),
	}
}

// SaveAllInput gathers everything a group save needs: the attributes
// view, the hierarchy and dependency task/edge lists (as produced by
// hierarchy.Graph/dependency.Graph's own views), and the next unused
// UID from the uidsource in use.
type SaveAllInput struct {
	Attributes      attributes.View
	HierarchyTasks  []taskid.UID
	HierarchyEdges  [][2]taskid.UID
	DependencyTasks []taskid.UID
	DependencyEdges [][2]taskid.UID
	NextUID         taskid.UID
}

// SaveAll writes every artifact to a temporary sibling file under dir,
// and only renames all four into place once every write succeeds. If
// creating, writing, or closing any temporary fails, the temporaries are
// removed and the originals (if any) are left untouched. The renames run
// one after another; if one fails, the artifacts renamed before it have
// already replaced their originals.
func (e *Envelope) SaveAll(dir string, in SaveAllInput) (err error) {
	names := DefaultFilenames(dir)
	writers := []struct {
		path  string
		write func(io.Writer) error
	}{
		{names.Attributes, func(w io.Writer) error { return e.WriteAttributes(w, in.Attributes) }},
		{names.Hierarchy, func(w io.Writer) error { return e.WriteEdges(w, in.HierarchyTasks, in.HierarchyEdges) }},
		{names.Dependency, func(w io.Writer) error { return e.WriteEdges(w, in.DependencyTasks, in.DependencyEdges) }},
		{names.NextUID, func(w io.Writer) error { return e.WriteNextUID(w, in.NextUID) }},
	}

	var temps []string
	defer func() {
		if err != nil {
			for _, tmp := range temps {
				os.Remove(tmp)
			}
		}
	}()

	for _, entry := range writers {
		tmp := entry.path + ".tmp"
		f, createErr := os.Create(tmp)
		if createErr != nil {
			err = fmt.Errorf("persistence: creating %s: %w", tmp, createErr)
			e.logger.Error("save failed", "path", tmp, "err", err)
			return err
		}
		temps = append(temps, tmp)
		writeErr := entry.write(f)
		closeErr := f.Close()
		if writeErr != nil {
			err = fmt.Errorf("persistence: writing %s: %w", tmp, writeErr)
			e.logger.Error("save failed", "path", tmp, "err", err)
			return err
		}
		if closeErr != nil {
			err = fmt.Errorf("persistence: closing %s: %w", tmp, closeErr)
			e.logger.Error("save failed", "path", tmp, "err", err)
			return err
		}
	}

	for _, entry := range writers {
		tmp := entry.path + ".tmp"
		if renameErr := os.Rename(tmp, entry.path); renameErr != nil {
			err = fmt.Errorf("persistence: renaming %s: %w", tmp, renameErr)
			e.logger.Error("save failed", "path", entry.path, "err", err)
			return err
		}
	}

	e.logger.Info("saved task network", "dir", dir)
	return nil
}

// LoadAllOutput mirrors SaveAllInput with the shapes LoadAll reads back.
type LoadAllOutput struct {
	HierarchyTasks  []taskid.UID
	HierarchyEdges  [][2]taskid.UID
	DependencyTasks []taskid.UID
	DependencyEdges [][2]taskid.UID
	NextUID         taskid.UID
}

// ReadAttributesFile opens the conventional attributes file under dir and
// decodes it into register, which must already contain every task the
// artifact names (see ReadAttributes).
func (e *Envelope) ReadAttributesFile(dir string, register *attributes.Register) error {
	path := DefaultFilenames(dir).Attributes
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("persistence: opening %s: %w", path, err)
	}
	defer f.Close()
	if err := e.ReadAttributes(f, register); err != nil {
		return fmt.Errorf("persistence: reading %s: %w", path, err)
	}
	return nil
}

// LoadAll reads the hierarchy, dependency, and next-UID artifacts from
// dir. Attributes are read directly into an already-populated
// attributes.Register by the caller via ReadAttributes, since attribute
// values can only be applied after the tasks they describe exist.
func (e *Envelope) LoadAll(dir string) (LoadAllOutput, error) {
	names := DefaultFilenames(dir)
	var out LoadAllOutput

	hf, err := os.Open(names.Hierarchy)
	if err != nil {
		return out, fmt.Errorf("persistence: opening %s: %w", names.Hierarchy, err)
	}
	defer hf.Close()
	out.HierarchyTasks, out.HierarchyEdges, err = e.ReadEdges(hf)
	if err != nil {
		return out, fmt.Errorf("persistence: reading %s: %w", names.Hierarchy, err)
	}

	df, err := os.Open(names.Dependency)
	if err != nil {
		return out, fmt.Errorf("persistence: opening %s: %w", names.Dependency, err)
	}
	defer df.Close()
	out.DependencyTasks, out.DependencyEdges, err = e.ReadEdges(df)
	if err != nil {
		return out, fmt.Errorf("persistence: reading %s: %w", names.Dependency, err)
	}

	uf, err := os.Open(names.NextUID)
	if err != nil {
		return out, fmt.Errorf("persistence: opening %s: %w", names.NextUID, err)
	}
	defer uf.Close()
	out.NextUID, err = e.ReadNextUID(uf)
	if err != nil {
		return out, fmt.Errorf("persistence: reading %s: %w", names.NextUID, err)
	}

	e.logger.Info("loaded task network", "dir", dir)
	return out, nil
}
