package query

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var vocabularyYAML []byte

// vocabulary is the static term catalog shared by the parser and the
// expander. Loaded once from the embedded YAML.
type vocabulary struct {
	Skills     []string            `yaml:"skills"`
	Roles      []string            `yaml:"roles"`
	Expansions map[string][]string `yaml:"expansions"`
	Related    map[string][]string `yaml:"related"`
}

var (
	vocabOnce sync.Once
	vocab     *vocabulary
	vocabErr  error
)

func loadVocabulary() (*vocabulary, error) {
	vocabOnce.Do(func() {
		v := &vocabulary{}
		if err := yaml.Unmarshal(vocabularyYAML, v); err != nil {
			vocabErr = fmt.Errorf("failed to parse embedded vocabulary: %w", err)
			return
		}
		vocab = v
	})
	return vocab, vocabErr
}

// mustVocabulary panics on a malformed embedded vocabulary. The file ships
// inside the binary, so a failure here is a build defect, not a runtime
// condition.
func mustVocabulary() *vocabulary {
	v, err := loadVocabulary()
	if err != nil {
		panic(err)
	}
	return v
}
