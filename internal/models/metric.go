package models

// MetricRecord is a single named metric value for a stock, loaded once from
// the primary dataset and immutable afterwards.
type MetricRecord struct {
	StockID string  `json:"stock_id"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
}

// Rating classifies a metric against its peer-group mean.
type Rating string

const (
	// RatingFavorable means the stock compares favorably to the peer mean.
	RatingFavorable Rating = "favorable"
	// RatingUnfavorable means the stock compares unfavorably, including ties.
	RatingUnfavorable Rating = "unfavorable"
	// RatingUndetermined means no peer values were available to compare against.
	RatingUndetermined Rating = "undetermined"
)

// Verdict is the outcome of comparing one stock metric against its peer group.
// PeerMean is NaN and PeerCount is zero when the rating is undetermined.
type Verdict struct {
	Metric     string  `json:"metric"`
	StockValue float64 `json:"stock_value"`
	PeerMean   float64 `json:"peer_mean"`
	PeerCount  int     `json:"peer_count"`
	Rating     Rating  `json:"rating"`
}

// Favorable reports whether the verdict is favorable. Undetermined verdicts
// are never favorable.
func (v Verdict) Favorable() bool {
	return v.Rating == RatingFavorable
}
