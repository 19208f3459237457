package statement

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/miwtoo/credit-card-extraction/extractor/common"
)

// shapeMatch is one transaction found by a TransactionShape.
type shapeMatch struct {
	dates       []string
	description string
	amount      string
}

// scan returns the non-overlapping matches of the shape in text. The
// description is the shortest non-empty run after the date prefix that is
// followed by an amount which itself is followed by another date or the end
// of the row.
func (s TransactionShape) scan(text string) []shapeMatch {
	var out []shapeMatch
	pos := 0
	for pos < len(text) {
		loc := s.Prefix.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, descStart := pos+loc[0], pos+loc[1]

		m, end, ok := s.matchTail(text, descStart)
		if !ok {
			pos = start + 1
			continue
		}
		for g := 2; g+1 < len(loc); g += 2 {
			if loc[g] >= 0 {
				m.dates = append(m.dates, text[pos+loc[g]:pos+loc[g+1]])
			}
		}
		out = append(out, m)
		pos = end
	}
	return out
}

func (s TransactionShape) matchTail(text string, descStart int) (shapeMatch, int, bool) {
	off := descStart + 1
	for off < len(text) {
		loc := s.Amount.FindStringSubmatchIndex(text[off:])
		if loc == nil {
			break
		}
		wsStart, amtStart, amtEnd := off+loc[0], off+loc[2], off+loc[3]
		if s.Boundary.MatchString(text[amtEnd:]) {
			return shapeMatch{
				description: text[descStart:wsStart],
				amount:      text[amtStart:amtEnd],
			}, amtEnd, true
		}
		off = wsStart + 1
	}
	return shapeMatch{}, 0, false
}

func (p *Parser) handleTransaction(row common.NormalizedRow, text string) {
	r := p.rules

	if p.isNoise(text) {
		return
	}

	if r.PreviousBalance != nil {
		if m := r.PreviousBalance.FindStringSubmatch(text); m != nil {
			a, err := common.ParseAmount(m[1])
			if err != nil {
				p.warnf(row, "previous_balance: %v", err)
				return
			}
			p.result.Statement.PreviousBalance = a
			p.strength[FieldPreviousBalance] = strengthField
			p.prevSet = true
			return
		}
	}

	if r.FXRow != nil {
		if m := r.FXRow.FindStringSubmatch(text); m != nil {
			p.applyFX(row, m)
			return
		}
	}

	for _, shape := range r.Shapes {
		matches := shape.scan(text)
		if len(matches) == 0 {
			continue
		}
		p.recordMatches(row, shape.Name, matches)
		return
	}

	if len(common.FindDates(text)) > 0 {
		p.fallbackTransaction(row, text)
		return
	}

	if p.open != nil && p.isContinuation(text) {
		p.open.Description += " " + text
	}
}

func (p *Parser) isNoise(text string) bool {
	for _, marker := range p.rules.NoiseMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	total := utf8.RuneCountInString(text)
	if p.rules.NoiseMinLength <= 0 || total < p.rules.NoiseMinLength {
		return false
	}
	alnum := 0
	for _, c := range text {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			alnum++
		}
	}
	return float64(alnum)/float64(total) < p.rules.NoiseMinAlnumRatio
}

func (p *Parser) applyFX(row common.NormalizedRow, m []string) {
	if p.open == nil {
		return
	}
	amount, err := common.ParseAmount(m[2])
	if err != nil {
		p.warnf(row, "foreign_amount: %v", err)
		return
	}
	p.open.ForeignCurrency = m[1]
	p.open.ForeignAmount = &amount

	if len(m) > 3 && m[3] != "" {
		rate, err := common.ParseRate(m[3])
		if err != nil {
			p.warnf(row, "conversion_rate: %v", err)
			return
		}
		p.open.ConversionRate = &rate
	}
}

func (p *Parser) recordMatches(row common.NormalizedRow, shape string, matches []shapeMatch) {
	var txs []common.Transaction
	for _, m := range matches {
		tx, ok := p.buildTransaction(row, shape, m.dates, m.description, m.amount)
		if ok {
			txs = append(txs, tx)
		}
	}
	if len(txs) == 0 {
		return
	}

	p.flush()
	last := len(txs) - 1
	p.result.Transactions = append(p.result.Transactions, txs[:last]...)
	p.open = &txs[last]
}

// fallbackTransaction opens a transaction from a dated row that no shape
// matched: first date, optional second date, last amount on the row.
func (p *Parser) fallbackTransaction(row common.NormalizedRow, text string) {
	p.flush()

	dates := common.FindDates(text)
	if len(dates) > 2 {
		dates = dates[:2]
	}

	amounts := common.FindAmountIndexes(text)
	if len(amounts) == 0 {
		p.warnf(row, "dated row without amount dropped")
		return
	}
	last := amounts[len(amounts)-1]
	amount := text[last[0]:last[1]]

	description := text[:last[0]] + text[last[1]:]
	for _, d := range common.FindDates(text) {
		description = strings.Replace(description, d, "", 1)
	}

	tx, ok := p.buildTransaction(row, "fallback", dates, description, amount)
	if ok {
		p.open = &tx
	}
}

func (p *Parser) buildTransaction(row common.NormalizedRow, shape string, dates []string, description, amount string) (common.Transaction, bool) {
	if len(dates) == 0 {
		return common.Transaction{}, false
	}
	date, err := common.ParseDate(dates[0])
	if err != nil {
		p.warnf(row, "%s transaction skipped: %v", shape, err)
		return common.Transaction{}, false
	}
	postDate := date
	if len(dates) > 1 {
		if postDate, err = common.ParseDate(dates[1]); err != nil {
			p.warnf(row, "%s transaction skipped: %v", shape, err)
			return common.Transaction{}, false
		}
	}

	value, err := common.ParseAmount(amount)
	if err != nil {
		p.warnf(row, "%s transaction skipped: %v", shape, err)
		return common.Transaction{}, false
	}

	description = common.Sanitize(description)
	if p.rules.FooterKeywords != nil {
		description = p.rules.FooterKeywords.Truncate(description)
	}
	if description == "" {
		p.warnf(row, "%s transaction skipped: empty description", shape)
		return common.Transaction{}, false
	}

	return common.Transaction{
		Date:        date,
		PostDate:    postDate,
		Description: description,
		Amount:      value,
		Currency:    p.rules.Currency,
	}, true
}

func (p *Parser) isContinuation(text string) bool {
	lowered := strings.ToLower(text)
	for _, prefix := range p.rules.ContinuationSkipPrefixes {
		if strings.HasPrefix(lowered, strings.ToLower(prefix)) {
			return false
		}
	}
	for _, s := range p.rules.ContinuationSkipContains {
		if strings.Contains(lowered, strings.ToLower(s)) {
			return false
		}
	}
	return true
}
