package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ziadkadry99/chat-lens/internal/embeddings"
	"github.com/ziadkadry99/chat-lens/internal/search"
)

const kmeansIterations = 10

// ClusterMessages embeds the message texts and groups them with a
// deterministic k-means. k <= 0 picks a cluster count from the corpus
// size. Runs on the same input always produce the same clusters, so
// results are comparable across invocations.
func ClusterMessages(ctx context.Context, embedder embeddings.Embedder, msgs []search.Result, k int) ([]Cluster, error) {
	if len(msgs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Message
	}
	vecs, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding messages: %w", err)
	}
	if len(vecs) != len(msgs) {
		return nil, fmt.Errorf("embedder returned %d vectors, expected %d", len(vecs), len(msgs))
	}

	if k <= 0 {
		k = chooseK(len(vecs))
	}
	if k > len(vecs) {
		k = len(vecs)
	}

	assignments, centroids := kmeans(vecs, k)

	members := make(map[int][]int)
	for i, c := range assignments {
		members[c] = append(members[c], i)
	}

	// Empty clusters drop out here.
	var centers []int
	for c := range members {
		centers = append(centers, c)
	}
	sort.Slice(centers, func(i, j int) bool {
		if len(members[centers[i]]) != len(members[centers[j]]) {
			return len(members[centers[i]]) > len(members[centers[j]])
		}
		return centers[i] < centers[j]
	})

	clusters := make([]Cluster, 0, len(centers))
	for id, c := range centers {
		idx := members[c]
		centroid := centroids[c]

		var cohesion float64
		sims := make([]float64, len(idx))
		for i, m := range idx {
			sims[i] = cosine(vecs[m], centroid)
			cohesion += sims[i]
		}
		cohesion /= float64(len(idx))

		ranked := append([]int(nil), idx...)
		sort.SliceStable(ranked, func(i, j int) bool {
			return cosine(vecs[ranked[i]], centroid) > cosine(vecs[ranked[j]], centroid)
		})

		examples := make([]string, 0, 3)
		for _, m := range ranked {
			if len(examples) == 3 {
				break
			}
			examples = append(examples, msgs[m].Message)
		}

		clusters = append(clusters, Cluster{
			ID:       id + 1,
			Size:     len(idx),
			Cohesion: cohesion,
			Examples: examples,
		})
	}

	return clusters, nil
}

// chooseK picks a cluster count near the square root of the corpus size.
func chooseK(n int) int {
	if n <= 1 {
		return 1
	}
	k := int(math.Round(math.Sqrt(float64(n))))
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}
	return k
}

// kmeans runs a fixed-iteration cosine k-means with farthest-point
// seeding. No randomness anywhere, so the outcome depends only on the
// input order.
func kmeans(vecs [][]float32, k int) ([]int, [][]float32) {
	centroids := make([][]float32, 0, k)
	centroids = append(centroids, vecs[0])
	for len(centroids) < k {
		best := -1
		bestDist := -1.0
		for i, v := range vecs {
			minDist := math.MaxFloat64
			for _, c := range centroids {
				if d := 1 - cosine(v, c); d < minDist {
					minDist = d
				}
			}
			if minDist > bestDist {
				bestDist = minDist
				best = i
			}
		}
		centroids = append(centroids, vecs[best])
	}

	assignments := make([]int, len(vecs))
	for iter := 0; iter < kmeansIterations; iter++ {
		changed := false
		for i, v := range vecs {
			best := 0
			bestSim := cosine(v, centroids[0])
			for c := 1; c < len(centroids); c++ {
				if sim := cosine(v, centroids[c]); sim > bestSim {
					bestSim = sim
					best = c
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([][]float64, len(centroids))
		counts := make([]int, len(centroids))
		for i := range sums {
			sums[i] = make([]float64, len(vecs[0]))
		}
		for i, v := range vecs {
			c := assignments[i]
			counts[c]++
			for d, x := range v {
				sums[c][d] += float64(x)
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			mean := make([]float32, len(sums[c]))
			for d, s := range sums[c] {
				mean[d] = float32(s / float64(counts[c]))
			}
			centroids[c] = normalize(mean)
		}
	}

	return assignments, centroids
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
