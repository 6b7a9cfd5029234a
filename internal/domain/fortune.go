package domain

// FortuneDomain names one of the four scored life areas.
type FortuneDomain string

const (
	Career       FortuneDomain = "career"
	Wealth       FortuneDomain = "wealth"
	Health       FortuneDomain = "health"
	Relationship FortuneDomain = "relationship"
)

// FortuneDomainOrder is the canonical iteration order; weakest-domain ties
// resolve to the first match in this order.
var FortuneDomainOrder = []FortuneDomain{Career, Wealth, Health, Relationship}

var fortuneDomainHan = map[FortuneDomain]string{
	Career:       "事业运",
	Wealth:       "财运",
	Health:       "健康运",
	Relationship: "感情运",
}

// Han returns the Chinese display name for the domain.
func (d FortuneDomain) Han() string { return fortuneDomainHan[d] }

// FortuneScore holds the four domain scores plus their rounded mean.
// Every field is within [0,100].
type FortuneScore struct {
	Career       int `json:"career"`
	Wealth       int `json:"wealth"`
	Health       int `json:"health"`
	Relationship int `json:"relationship"`
	Overall      int `json:"overall"`
}

// Domain returns the score for the named domain.
func (f FortuneScore) Domain(d FortuneDomain) int {
	switch d {
	case Career:
		return f.Career
	case Wealth:
		return f.Wealth
	case Health:
		return f.Health
	case Relationship:
		return f.Relationship
	}
	return 0
}

// WeakestDomain returns the lowest-scoring domain, ties resolving to the
// first match in FortuneDomainOrder.
func (f FortuneScore) WeakestDomain() FortuneDomain {
	weakest := FortuneDomainOrder[0]
	for _, d := range FortuneDomainOrder[1:] {
		if f.Domain(d) < f.Domain(weakest) {
			weakest = d
		}
	}
	return weakest
}
