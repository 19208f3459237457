package statement

import (
	"strconv"
	"strings"

	"github.com/miwtoo/credit-card-extraction/extractor/common"
)

// handleRewards reads point balances. A summary row carrying all four
// counters wins; otherwise keyword rows set one counter each.
func (p *Parser) handleRewards(row common.NormalizedRow, text string) {
	r := p.rules

	if r.RewardRow != nil {
		if m := r.RewardRow.FindStringSubmatch(text); m != nil {
			fields := []RewardField{RewardPrevious, RewardEarned, RewardRedeemed, RewardCurrent}
			for i, f := range fields {
				p.setReward(row, f, m[i+1])
			}
			return
		}
	}

	for _, rule := range r.RewardFields {
		if m := rule.Pattern.FindStringSubmatch(text); m != nil {
			p.setReward(row, rule.Field, m[1])
		}
	}
}

func (p *Parser) setReward(row common.NormalizedRow, field RewardField, raw string) {
	n, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), 10, 64)
	if err != nil {
		p.warnf(row, "reward points: %v", err)
		return
	}

	if p.result.Rewards == nil {
		p.result.Rewards = &common.RewardBalance{}
	}
	rw := p.result.Rewards
	switch field {
	case RewardPrevious:
		rw.PreviousBalance = n
	case RewardEarned:
		rw.Earned = n
	case RewardRedeemed:
		rw.Redeemed = n
	case RewardCurrent:
		rw.CurrentBalance = n
	}
}
