package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"learnflow/backend/models"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrInvalidCourseFile reports a definition that failed validation.
var ErrInvalidCourseFile = errors.New("invalid course definition")

// CourseFile is the YAML course definition accepted by Importer.
type CourseFile struct {
	Title       string        `yaml:"title"`
	ShortDesc   string        `yaml:"short_desc"`
	Description string        `yaml:"description"`
	Difficulty  string        `yaml:"difficulty"`
	LogoURL     string        `yaml:"logo_url"`
	Sections    []SectionFile `yaml:"sections"`
}

type SectionFile struct {
	Title    string        `yaml:"title"`
	Order    *int          `yaml:"order"`
	Chapters []ChapterFile `yaml:"chapters"`
	Quiz     *QuizFile     `yaml:"quiz"`
}

type ChapterFile struct {
	Title    string `yaml:"title"`
	Kind     string `yaml:"kind"`
	Body     string `yaml:"body"`
	VideoURL string `yaml:"video_url"`
	Order    *int   `yaml:"order"`
}

type QuizFile struct {
	Title     string             `yaml:"title"`
	Questions []QuizQuestionFile `yaml:"questions"`
}

type QuizQuestionFile struct {
	Question string   `yaml:"question"`
	Options  []string `yaml:"options"`
}

// ParseCourseFile decodes and validates a YAML course definition. The
// returned map is keyed by field path and is empty when the file is valid.
func ParseCourseFile(data []byte) (*CourseFile, map[string]string, error) {
	var f CourseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parsing course yaml: %w", err)
	}

	problems := make(map[string]string)
	if strings.TrimSpace(f.Title) == "" {
		problems["title"] = "Title is required"
	}
	for i, s := range f.Sections {
		if strings.TrimSpace(s.Title) == "" {
			problems[fmt.Sprintf("sections[%d].title", i)] = "Section title is required"
		}
		for j, ch := range s.Chapters {
			if strings.TrimSpace(ch.Title) == "" {
				problems[fmt.Sprintf("sections[%d].chapters[%d].title", i, j)] = "Chapter title is required"
			}
		}
		if s.Quiz != nil {
			for j, q := range s.Quiz.Questions {
				if strings.TrimSpace(q.Question) == "" {
					problems[fmt.Sprintf("sections[%d].quiz.questions[%d].question", i, j)] = "Question text is required"
				}
			}
		}
	}
	return &f, problems, nil
}

// Importer persists course definitions.
type Importer struct {
	DB *gorm.DB
}

func NewImporter(db *gorm.DB) *Importer {
	return &Importer{DB: db}
}

// Import writes the whole course in one transaction. Missing order
// values default to the item's position in the file.
func (im *Importer) Import(ctx context.Context, f *CourseFile, authorID uint) (*models.Course, error) {
	course := models.Course{
		Title:       strings.TrimSpace(f.Title),
		ShortDesc:   f.ShortDesc,
		Description: f.Description,
		Difficulty:  f.Difficulty,
		LogoURL:     f.LogoURL,
		AuthorID:    authorID,
	}

	err := im.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&course).Error; err != nil {
			return fmt.Errorf("creating course: %w", err)
		}

		for i, sf := range f.Sections {
			section := models.Section{
				CourseID:   course.ID,
				Title:      strings.TrimSpace(sf.Title),
				OrderIndex: orderOr(sf.Order, i+1),
			}
			if err := tx.Create(&section).Error; err != nil {
				return fmt.Errorf("creating section %q: %w", sf.Title, err)
			}

			for j, cf := range sf.Chapters {
				chapter := models.Chapter{
					SectionID:  section.ID,
					Title:      strings.TrimSpace(cf.Title),
					Kind:       models.ParseContentKind(cf.Kind),
					Body:       cf.Body,
					VideoURL:   cf.VideoURL,
					OrderIndex: orderOr(cf.Order, j+1),
				}
				if err := tx.Create(&chapter).Error; err != nil {
					return fmt.Errorf("creating chapter %q: %w", cf.Title, err)
				}
				section.Chapters = append(section.Chapters, chapter)
			}

			if sf.Quiz != nil {
				quiz := models.Quiz{SectionID: section.ID, Title: sf.Quiz.Title}
				if quiz.Title == "" {
					quiz.Title = section.Title + " quiz"
				}
				if err := tx.Create(&quiz).Error; err != nil {
					return fmt.Errorf("creating quiz for %q: %w", sf.Title, err)
				}
				for k, qf := range sf.Quiz.Questions {
					options, err := json.Marshal(qf.Options)
					if err != nil {
						return fmt.Errorf("encoding options: %w", err)
					}
					question := models.QuizQuestion{
						QuizID:        quiz.ID,
						Question:      qf.Question,
						Options:       datatypes.JSON(options),
						SequenceOrder: k + 1,
					}
					if err := tx.Create(&question).Error; err != nil {
						return fmt.Errorf("creating quiz question: %w", err)
					}
				}
				section.Quiz = &quiz
			}
			course.Sections = append(course.Sections, section)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func orderOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}
