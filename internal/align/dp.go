package align

type move uint8

const (
	moveDiag move = iota
	moveUp
	moveLeft
)

// score ranks partial alignments: lower cost first, then the longest run of
// consecutive exact diagonal matches seen so far, then the run still open at
// this cell, then the total number of exact matches.
type score struct {
	cost    int
	longest int
	run     int
	hits    int
}

// beats reports whether s strictly ranks above o. Ties keep the earlier
// candidate, so the diagonal wins over deletion and deletion over insertion.
func (s score) beats(o score) bool {
	switch {
	case s.cost != o.cost:
		return s.cost < o.cost
	case s.longest != o.longest:
		return s.longest > o.longest
	case s.run != o.run:
		return s.run > o.run
	default:
		return s.hits > o.hits
	}
}

// step extends s by one move. Only an exact diagonal match extends the open
// run; any other move closes it.
func (s score) step(cost int, hit bool) score {
	s.cost += cost
	if !hit {
		s.run = 0
		return s
	}
	s.hits++
	s.run++
	s.longest = max(s.longest, s.run)
	return s
}

// editScript returns the moves of a minimum unit-cost alignment of ref
// against hyp. moveUp consumes a reference token (deletion), moveLeft a
// hypothesis token (insertion) and moveDiag one of each. Among equal-cost
// alignments the one keeping the longest diagonal run of exact matches wins.
//
// Scores are kept as two rolling rows; the move table is the full
// (n+1)*(m+1) grid so the path can be traced back.
func editScript(ref, hyp []string) []move {
	n, m := len(ref), len(hyp)
	width := m + 1
	moves := make([]move, (n+1)*width)

	prev := make([]score, width)
	cur := make([]score, width)
	for j := 1; j <= m; j++ {
		prev[j] = score{cost: j}
		moves[j] = moveLeft
	}

	for i := 1; i <= n; i++ {
		cur[0] = score{cost: i}
		moves[i*width] = moveUp
		for j := 1; j <= m; j++ {
			hit := ref[i-1] == hyp[j-1]
			subCost := 1
			if hit {
				subCost = 0
			}
			best, bestMove := prev[j-1].step(subCost, hit), moveDiag
			if c := prev[j].step(1, false); c.beats(best) {
				best, bestMove = c, moveUp
			}
			if c := cur[j-1].step(1, false); c.beats(best) {
				best, bestMove = c, moveLeft
			}
			cur[j] = best
			moves[i*width+j] = bestMove
		}
		prev, cur = cur, prev
	}

	script := make([]move, 0, max(n, m))
	for i, j := n, m; i > 0 || j > 0; {
		mv := moves[i*width+j]
		script = append(script, mv)
		switch mv {
		case moveDiag:
			i--
			j--
		case moveUp:
			i--
		case moveLeft:
			j--
		}
	}
	for l, r := 0, len(script)-1; l < r; l, r = l+1, r-1 {
		script[l], script[r] = script[r], script[l]
	}
	return script
}
