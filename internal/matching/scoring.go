package matching

import "strconv"

// CompatibilityScore implements §4.3's deterministic, additive 0-100
// formula. It never looks anything up; callers supply the request and
// the property it is being scored against.
func CompatibilityScore(m *MatchRequest, p *Property) int {
	score := 0
	score += incomeRatioPoints(m, p)
	score += documentationPoints(m)
	score += petPoints(m, p)
	score += smokingPoints(m, p)
	score += leaseDurationPoints(m)
	score += messageLengthPoints(m)

	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

func incomeRatioPoints(m *MatchRequest, p *Property) int {
	if m.MonthlyIncome == nil {
		return 0
	}
	income, err := strconv.ParseFloat(*m.MonthlyIncome, 64)
	if err != nil || income <= 0 {
		return 0
	}
	rent, err := strconv.ParseFloat(p.MonthlyRent, 64)
	if err != nil || rent <= 0 {
		return 0
	}
	ratio := income / rent
	switch {
	case ratio >= 4:
		return 30
	case ratio >= 3:
		return 25
	case ratio >= 2.5:
		return 15
	case ratio >= 2:
		return 10
	default:
		return 5
	}
}

func documentationPoints(m *MatchRequest) int {
	pts := 0
	if m.HasRentalReferences {
		pts += 10
	}
	if m.HasEmploymentProof {
		pts += 10
	}
	if m.HasCreditCheck {
		pts += 5
	}
	return pts
}

// petPoints rewards a tenant who doesn't need pets allowed at all (10),
// rewards a pet-owning tenant matching a pet-friendly property more (15),
// and penalizes a mismatch (0).
func petPoints(m *MatchRequest, p *Property) int {
	if !m.HasPets {
		return 10
	}
	if p.PetsAllowed {
		return 15
	}
	return 0
}

func smokingPoints(m *MatchRequest, p *Property) int {
	if !m.SmokingAllowed {
		return 5
	}
	if p.SmokingAllowed {
		return 10
	}
	return 0
}

// leaseDurationPoints rewards a term inside the property's typical
// 6-24 month window fully; a longer commitment (>=12, including beyond
// 24) still earns partial credit for being substantial; anything
// shorter earns none.
func leaseDurationPoints(m *MatchRequest) int {
	d := m.LeaseDurationMonths
	if d >= 6 && d <= 24 {
		return 10
	}
	if d >= 12 {
		return 5
	}
	return 0
}

func messageLengthPoints(m *MatchRequest) int {
	n := len(m.TenantMessage)
	switch {
	case n >= 200:
		return 10
	case n >= 100:
		return 5
	default:
		return 0
	}
}
