// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"strings"
	"unicode"

	"github.com/pdiddy/papercut-engine/pkg/types"
)

const defaultLexicalDims = 512

// FeatureAnalyzer computes pixel features. features.Analyzer satisfies it.
type FeatureAnalyzer interface {
	Analyze(img image.Image) types.VisualFeatures
}

// LexicalEmbedder is an offline embedder based on feature hashing. Texts
// are tokenized into ASCII words and Han unigrams and bigrams; images are
// described by the vocabulary of their pixel features and embedded as
// text. It needs no model and is fully deterministic.
type LexicalEmbedder struct {
	dims     int
	features FeatureAnalyzer
}

// NewLexicalEmbedder returns a LexicalEmbedder with dims dimensions
// (default 512).
func NewLexicalEmbedder(dims int, features FeatureAnalyzer) *LexicalEmbedder {
	if dims <= 0 {
		dims = defaultLexicalDims
	}
	return &LexicalEmbedder{dims: dims, features: features}
}

// Name implements Embedder.
func (l *LexicalEmbedder) Name() string {
	return fmt.Sprintf("lexical-%d", l.dims)
}

// EmbedTexts implements Embedder.
func (l *LexicalEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = l.vector(text)
	}
	return out, nil
}

// EmbedImage implements Embedder.
func (l *LexicalEmbedder) EmbedImage(ctx context.Context, img image.Image) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.features == nil {
		return nil, fmt.Errorf("lexical embedder has no feature analyzer")
	}
	return l.vector(FeatureVocabulary(l.features.Analyze(img))), nil
}

func (l *LexicalEmbedder) vector(text string) []float64 {
	v := make([]float64, l.dims)
	for _, tok := range tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(l.dims))
		if sum>>63 == 1 {
			v[idx]--
		} else {
			v[idx]++
		}
	}
	return v
}

// tokenize splits text into lower-case ASCII words and Han unigrams and
// bigrams.
func tokenize(text string) []string {
	var (
		tokens  []string
		word    strings.Builder
		prevHan rune
	)
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			prevHan = 0
			word.WriteRune(r)
		case unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
			if prevHan != 0 {
				tokens = append(tokens, string([]rune{prevHan, r}))
			}
			prevHan = r
		default:
			flush()
			prevHan = 0
		}
	}
	flush()
	return tokens
}

var featureVocabulary = map[string]string{
	string(types.LineBold):        "bold rugged jagged sawtooth 粗犷",
	string(types.LineFine):        "fine delicate detailed carving 细腻",
	string(types.CutYang):         "yang cut retained lines outline 阳刻",
	string(types.CutYin):          "yin cut hollowed solid 阴刻",
	string(types.CutMixed):        "yin yang combined cut 阴阳",
	string(types.ColorMonochrome): "red single color 红色 单色",
	string(types.ColorPolychrome): "multi color layered collage 套色",
	string(types.TextureSmooth):   "smooth paper",
	string(types.TextureRough):    "rough paper",
}

// FeatureVocabulary describes pixel features in words.
func FeatureVocabulary(f types.VisualFeatures) string {
	var parts []string
	for _, label := range []string{string(f.LineStyle), string(f.CuttingTechnique), string(f.ColorScheme), string(f.Texture)} {
		if words, ok := featureVocabulary[label]; ok {
			parts = append(parts, words)
		}
	}
	return strings.Join(parts, " ")
}
