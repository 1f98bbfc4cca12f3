package emotion

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidArtifact 表示模型文件结构或维度不合法。
var ErrInvalidArtifact = errors.New("invalid model artifact")

// ClassID 是模型中的类别标识，兼容整数和字符串两种序列化形式。
type ClassID string

// UnmarshalJSON accepts both `3` and `"anger"`.
func (c *ClassID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ClassID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("class id must be a number or string: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*c = ClassID(strconv.FormatInt(i, 10))
		return nil
	}
	*c = ClassID(n.String())
	return nil
}

// JSONSchema describes ClassID as either an integer or a string.
func (ClassID) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "integer"},
			{Type: "string"},
		},
	}
}

// ArtifactFile 是磁盘上 model_params.json 的结构。
type ArtifactFile struct {
	Vocabulary map[string]int `json:"vocabulary" jsonschema:"required"`
	IDF        []float64      `json:"idf" jsonschema:"required"`
	Coef       [][]float64    `json:"coef" jsonschema:"required"`
	Intercept  []float64      `json:"intercept" jsonschema:"required"`
	Classes    []ClassID      `json:"classes" jsonschema:"required"`
}

// ArtifactSchema returns the JSON schema of the artifact file.
func ArtifactSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	return reflector.Reflect(&ArtifactFile{})
}

// Artifact is the immutable trained model. It is safe for concurrent use
// because nothing mutates it after construction.
type Artifact struct {
	vocabulary map[string]int
	idf        []float64
	coef       *mat.Dense
	intercept  []float64
	classes    []ClassID
}

// NewArtifact validates the decoded file and builds an Artifact from it.
func NewArtifact(file ArtifactFile) (*Artifact, error) {
	nFeatures := len(file.IDF)
	nClasses := len(file.Classes)

	if nClasses == 0 {
		return nil, fmt.Errorf("%w: no classes", ErrInvalidArtifact)
	}
	if len(file.Vocabulary) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrInvalidArtifact)
	}
	if len(file.Vocabulary) != nFeatures {
		return nil, fmt.Errorf("%w: vocabulary has %d entries but idf has %d", ErrInvalidArtifact, len(file.Vocabulary), nFeatures)
	}
	if len(file.Intercept) != nClasses {
		return nil, fmt.Errorf("%w: %d classes but %d intercepts", ErrInvalidArtifact, nClasses, len(file.Intercept))
	}
	if len(file.Coef) != nClasses {
		return nil, fmt.Errorf("%w: %d classes but %d coefficient rows", ErrInvalidArtifact, nClasses, len(file.Coef))
	}

	data := make([]float64, 0, nClasses*nFeatures)
	for k, row := range file.Coef {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("%w: coefficient row %d has %d columns, want %d", ErrInvalidArtifact, k, len(row), nFeatures)
		}
		if i, ok := firstNonFinite(row); ok {
			return nil, fmt.Errorf("%w: coef[%d][%d] is not finite", ErrInvalidArtifact, k, i)
		}
		data = append(data, row...)
	}

	seen := make([]bool, nFeatures)
	vocabulary := make(map[string]int, len(file.Vocabulary))
	for term, idx := range file.Vocabulary {
		if idx < 0 || idx >= nFeatures {
			return nil, fmt.Errorf("%w: vocabulary index %d for %q out of range", ErrInvalidArtifact, idx, term)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: vocabulary index %d assigned twice", ErrInvalidArtifact, idx)
		}
		seen[idx] = true
		vocabulary[term] = idx
	}

	if i, ok := firstNonFinite(file.IDF); ok {
		return nil, fmt.Errorf("%w: idf[%d] is not finite", ErrInvalidArtifact, i)
	}
	if i, ok := firstNonFinite(file.Intercept); ok {
		return nil, fmt.Errorf("%w: intercept[%d] is not finite", ErrInvalidArtifact, i)
	}

	return &Artifact{
		vocabulary: vocabulary,
		idf:        append([]float64(nil), file.IDF...),
		coef:       mat.NewDense(nClasses, nFeatures, data),
		intercept:  append([]float64(nil), file.Intercept...),
		classes:    append([]ClassID(nil), file.Classes...),
	}, nil
}

func firstNonFinite(values []float64) (int, bool) {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i, true
		}
	}
	return 0, false
}

// DecodeArtifact reads a JSON artifact from r.
func DecodeArtifact(r io.Reader) (*Artifact, error) {
	var file ArtifactFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidArtifact, err)
	}
	return NewArtifact(file)
}

// LoadArtifact 从磁盘加载模型文件，以 .gz 结尾时按 gzip 解压。
func LoadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.EqualFold(filepath.Ext(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrInvalidArtifact, err)
		}
		defer gz.Close()
		r = gz
	}

	artifact, err := DecodeArtifact(r)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return artifact, nil
}

// Classes returns a copy of the class identifiers in row order.
func (a *Artifact) Classes() []ClassID {
	return append([]ClassID(nil), a.classes...)
}

// NumFeatures 返回词表大小。
func (a *Artifact) NumFeatures() int {
	return len(a.idf)
}

func (a *Artifact) lookup(term string) (int, bool) {
	idx, ok := a.vocabulary[term]
	return idx, ok
}
