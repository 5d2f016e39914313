package exercise

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/callumalpass/study-program/internal/curriculum"
	"github.com/callumalpass/study-program/internal/domain"
	"github.com/callumalpass/study-program/internal/schema"
)

// SubjectFileName is the manifest every subject directory carries.
const SubjectFileName = "subject.yaml"

// SubjectFile represents the YAML structure of a subject manifest
type SubjectFile struct {
	ID          string       `yaml:"id"`
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Topics      []TopicEntry `yaml:"topics"`
}

// TopicEntry declares one topic collection of a subject
type TopicEntry struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	File  string `yaml:"file"`
}

// TopicFile represents the YAML structure of a topic collection
type TopicFile struct {
	Exercises []schema.Record `yaml:"exercises"`
}

// Result is a loaded corpus plus the records that failed to decode.
type Result struct {
	Corpus     *curriculum.Corpus
	Rejections []schema.Rejection
}

// Loader handles loading subjects from YAML files
type Loader struct {
	fsys fs.FS
	root string
}

// NewLoader creates a loader over fsys, rooted at its top directory
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys, root: "."}
}

// NewDirLoader creates a loader over a directory on disk
func NewDirLoader(basePath string) *Loader {
	return &Loader{fsys: os.DirFS(basePath), root: basePath}
}

// Root returns the directory the loader reads from ("." for an fs.FS)
func (l *Loader) Root() string {
	return l.root
}

// SubjectIDs lists the directories that carry a subject manifest, in
// lexical order.
func (l *Loader) SubjectIDs() ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read content directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := fs.Stat(l.fsys, path.Join(entry.Name(), SubjectFileName)); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		ids = append(ids, entry.Name())
	}
	return ids, nil
}

// LoadSubject loads a subject and every topic collection it declares.
// Records that fail the schema are returned as rejections; IO and YAML
// syntax errors abort the load.
func (l *Loader) LoadSubject(dir string) (*curriculum.Subject, []schema.Rejection, error) {
	manifestPath := path.Join(dir, SubjectFileName)

	data, err := fs.ReadFile(l.fsys, manifestPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read subject file: %w", err)
	}

	var subjectFile SubjectFile
	if err := yaml.Unmarshal(data, &subjectFile); err != nil {
		return nil, nil, fmt.Errorf("parse subject file %s: %w", manifestPath, err)
	}
	if subjectFile.ID == "" {
		subjectFile.ID = dir
	}

	meta := curriculum.SubjectMeta{
		ID:          subjectFile.ID,
		Title:       subjectFile.Title,
		Description: subjectFile.Description,
	}

	var rejections []schema.Rejection
	topics := make([]curriculum.Collection, 0, len(subjectFile.Topics))
	for _, entry := range subjectFile.Topics {
		if entry.File == "" {
			return nil, nil, fmt.Errorf("subject %s topic %q: %w", meta.ID, entry.ID, curriculum.ErrMissingCollection)
		}
		topic, rejected, err := l.loadTopic(meta.ID, entry, path.Join(dir, entry.File))
		if err != nil {
			return nil, nil, err
		}
		topics = append(topics, topic)
		rejections = append(rejections, rejected...)
	}

	subject, err := curriculum.Compose(meta, topics...)
	if err != nil {
		return nil, nil, err
	}
	return subject, rejections, nil
}

func (l *Loader) loadTopic(subjectID string, entry TopicEntry, file string) (curriculum.Collection, []schema.Rejection, error) {
	data, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return curriculum.Collection{}, nil, fmt.Errorf("read topic file: %w", err)
	}

	var topicFile TopicFile
	if err := yaml.Unmarshal(data, &topicFile); err != nil {
		return curriculum.Collection{}, nil, fmt.Errorf("parse topic file %s: %w", file, err)
	}

	topic := curriculum.Collection{
		SubjectID: subjectID,
		TopicID:   entry.ID,
		Title:     entry.Title,
		Origin:    file,
		Exercises: make([]domain.Exercise, 0, len(topicFile.Exercises)),
	}

	var rejections []schema.Rejection
	for i, rec := range topicFile.Exercises {
		ex, err := schema.Decode(rec)
		if err != nil {
			var decodeErr *schema.DecodeError
			if !errors.As(err, &decodeErr) {
				return curriculum.Collection{}, nil, fmt.Errorf("decode %s#%d: %w", file, i, err)
			}
			id, _ := rec["id"].(string)
			rejections = append(rejections, schema.Rejection{
				Location: fmt.Sprintf("%s#%d", file, i),
				ID:       id,
				Err:      decodeErr,
			})
			continue
		}
		topic.Exercises = append(topic.Exercises, ex)
	}

	return topic, rejections, nil
}

// LoadAll loads every subject under the root
func (l *Loader) LoadAll() (*Result, error) {
	ids, err := l.SubjectIDs()
	if err != nil {
		return nil, err
	}

	var (
		subjects   []*curriculum.Subject
		rejections []schema.Rejection
	)
	for _, id := range ids {
		subject, rejected, err := l.LoadSubject(id)
		if err != nil {
			return nil, fmt.Errorf("load subject %s: %w", id, err)
		}
		subjects = append(subjects, subject)
		rejections = append(rejections, rejected...)
	}

	corpus, err := curriculum.NewCorpus(subjects...)
	if err != nil {
		return nil, err
	}
	return &Result{Corpus: corpus, Rejections: rejections}, nil
}
