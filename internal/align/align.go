package align

import (
	"log/slog"
	"math"

	"timedtext/internal/config"
	"timedtext/internal/faults"
	"timedtext/internal/logging"
	"timedtext/internal/textutil"
	"timedtext/internal/transcript"
)

// DefaultBestEffortRatio is the relative length mismatch above which a result
// is flagged as best effort.
const DefaultBestEffortRatio = 0.5

// Kind classifies an output token.
type Kind uint8

const (
	Matched Kind = iota
	Substituted
	Inserted
)

func (k Kind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Substituted:
		return "substituted"
	case Inserted:
		return "inserted"
	default:
		return "unknown"
	}
}

// Aligned is an output word and how it was derived.
type Aligned struct {
	transcript.Word
	Kind Kind
}

// Result is the outcome of one alignment.
type Result struct {
	Words       []Aligned
	Matched     int
	Substituted int
	Inserted    int
	Deleted     int
	BestEffort  bool
}

// Plain returns the aligned words without classification.
func (r Result) Plain() []transcript.Word {
	out := make([]transcript.Word, len(r.Words))
	for i, w := range r.Words {
		out[i] = w.Word
	}
	return out
}

func (r *Result) add(other Result) {
	r.Matched += other.Matched
	r.Substituted += other.Substituted
	r.Inserted += other.Inserted
	r.Deleted += other.Deleted
	r.BestEffort = r.BestEffort || other.BestEffort
}

// Aligner runs alignments with a shared best-effort threshold.
type Aligner struct {
	// BestEffortRatio is compared with |n-m| / max(n, m).
	BestEffortRatio float64
	// NextID allocates ids for inserted words. When nil, inserted words get
	// negative ids counting down from below the smallest id in use, so they
	// never collide with recognizer ids.
	NextID func() int

	logger *slog.Logger
}

// New constructs an Aligner. A non-positive ratio selects the default.
func New(ratio float64, logger *slog.Logger) *Aligner {
	if ratio <= 0 {
		ratio = DefaultBestEffortRatio
	}
	return &Aligner{
		BestEffortRatio: ratio,
		logger:          logging.NewComponentLogger(logger, "align"),
	}
}

// NewFromConfig constructs an Aligner from the [alignment] settings.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Aligner {
	ratio := DefaultBestEffortRatio
	if cfg != nil {
		ratio = cfg.Alignment.BestEffortRatio
	}
	return New(ratio, logger)
}

// Align aligns edited text against words. It never fails; empty text yields
// an empty result.
func (a *Aligner) Align(words []transcript.Word, text string) Result {
	next := a.NextID
	if next == nil {
		next = insertedIDs(minID(words))
	}
	tokens := textutil.Fields(text)
	res := a.align(words, tokens, next, window{})
	if res.BestEffort {
		a.warnBestEffort(a.logger, len(words), len(tokens), res)
	}
	return res
}

// SplitPoint reports how many of words belong before the first tokensBefore
// tokens of text. Words are cut after the last one aligned to a token on the
// left side, so inserted tokens never take timing from words on the right.
func (a *Aligner) SplitPoint(words []transcript.Word, text string, tokensBefore int) int {
	tokens := textutil.Fields(text)
	switch {
	case tokensBefore <= 0:
		return 0
	case tokensBefore >= len(tokens):
		return len(words)
	}
	cut, i, j := 0, 0, 0
	for _, op := range editScript(referenceKeys(words), tokenKeys(tokens)) {
		if j >= tokensBefore {
			break
		}
		switch op {
		case moveDiag:
			i++
			j++
			cut = i
		case moveUp:
			i++
		case moveLeft:
			j++
		}
	}
	return cut
}

// window bounds the timing of inserted runs that have no aligned word on one
// side. A zero window leaves such runs collapsed onto their single neighbour.
type window struct {
	lo, hi       float64
	hasLo, hasHi bool
}

func (a *Aligner) align(words []transcript.Word, tokens []string, next func() int, bounds window) Result {
	var res Result
	n, m := len(words), len(tokens)
	if longest := max(n, m); longest > 0 {
		ratio := math.Abs(float64(n-m)) / float64(longest)
		res.BestEffort = ratio > a.BestEffortRatio
	}
	if m == 0 {
		res.Deleted = n
		res.Words = []Aligned{}
		return res
	}

	ops := editScript(referenceKeys(words), tokenKeys(tokens))
	res.Words = make([]Aligned, 0, m)
	i, j := 0, 0
	for _, op := range ops {
		switch op {
		case moveDiag:
			kind := Matched
			if words[i].Text != tokens[j] {
				kind = Substituted
				res.Substituted++
			} else {
				res.Matched++
			}
			w := words[i]
			w.Text = tokens[j]
			res.Words = append(res.Words, Aligned{Word: w, Kind: kind})
			i++
			j++
		case moveUp:
			res.Deleted++
			i++
		case moveLeft:
			res.Words = append(res.Words, Aligned{
				Word: transcript.Word{ID: next(), Text: tokens[j]},
				Kind: Inserted,
			})
			res.Inserted++
			j++
		}
	}
	interpolate(res.Words, bounds)
	return res
}

func (a *Aligner) warnBestEffort(logger *slog.Logger, reference, hypothesis int, res Result) {
	logging.WarnWithContext(logger, "alignment length mismatch; using best-effort result", "alignment_best_effort",
		logging.String("error_kind", faults.Kind(faults.ErrAlignmentBestEffort)),
		logging.Int("reference_words", reference),
		logging.Int("edited_words", hypothesis),
		logging.Int("inserted", res.Inserted),
		logging.Int("deleted", res.Deleted),
		logging.Float64("threshold", a.BestEffortRatio),
		logging.String(logging.FieldErrorHint, "review timings of the edited paragraphs before publishing captions"),
		logging.String(logging.FieldImpact, "inserted words carry interpolated timestamps"),
	)
}

// interpolate assigns timings to runs of inserted words, spreading each run
// evenly between the previous anchored end and the next anchored start. A run
// at either edge spreads towards the matching bound when one is set.
func interpolate(words []Aligned, bounds window) {
	for a := 0; a < len(words); {
		if words[a].Kind != Inserted {
			a++
			continue
		}
		b := a
		for b < len(words) && words[b].Kind == Inserted {
			b++
		}
		var lo, hi float64
		switch {
		case a > 0 && b < len(words):
			lo, hi = words[a-1].End, words[b].Start
		case a > 0:
			lo, hi = words[a-1].End, words[a-1].End
			if bounds.hasHi && bounds.hi > hi {
				hi = bounds.hi
			}
		case b < len(words):
			lo, hi = words[b].Start, words[b].Start
			if bounds.hasLo && bounds.lo < lo {
				lo = bounds.lo
			}
		case bounds.hasLo:
			lo, hi = bounds.lo, bounds.lo
			if bounds.hasHi {
				hi = bounds.hi
			}
		case bounds.hasHi:
			lo, hi = bounds.hi, bounds.hi
		}
		if hi < lo {
			hi = lo
		}
		step := (hi - lo) / float64(b-a)
		for k := a; k < b; k++ {
			words[k].Start = lo + float64(k-a)*step
			words[k].End = lo + float64(k-a+1)*step
		}
		a = b
	}
}

func referenceKeys(words []transcript.Word) []string {
	keys := make([]string, len(words))
	for i, w := range words {
		keys[i] = compareKey(w.Text)
	}
	return keys
}

func tokenKeys(tokens []string) []string {
	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = compareKey(t)
	}
	return keys
}

// compareKey folds case and punctuation. Tokens made only of punctuation
// compare by their raw text.
func compareKey(token string) string {
	if key := textutil.Normalize(token); key != "" {
		return key
	}
	return token
}

func minID(words []transcript.Word) int {
	id := 0
	for _, w := range words {
		id = min(id, w.ID)
	}
	return id
}

// insertedIDs counts down from below floor, which is never positive.
func insertedIDs(floor int) func() int {
	next := min(floor, 0) - 1
	return func() int {
		id := next
		next--
		return id
	}
}
