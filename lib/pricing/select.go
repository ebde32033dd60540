package pricing

import "precoradar/lib/textutil"

// SelectBest picks the cheapest per-kg offer whose display name actually
// contains the query, which guards against loosely matching storefront
// search results. Ties keep the earliest-seen offer so selection stays
// deterministic. The second return is false when no offer qualifies.
func SelectBest(query string, offers []Offer) (Offer, bool) {
	var best Offer
	found := false
	for _, o := range offers {
		if !textutil.ContainsFold(o.DisplayName, query) {
			continue
		}
		if !found || o.PricePerKg.LessThan(best.PricePerKg) {
			best = o
			found = true
		}
	}
	return best, found
}
