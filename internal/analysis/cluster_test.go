package analysis

import (
	"context"
	"reflect"
	"testing"

	"github.com/ziadkadry99/chat-lens/internal/search"
)

// fixedEmbedder maps known texts to hand-picked vectors so the cluster
// geometry is obvious.
type fixedEmbedder struct {
	vectors map[string][]float32
}

func (f *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := f.vectors[text]
		if !ok {
			vec = []float32{0, 0, 1}
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fixedEmbedder) Dimensions() int { return 3 }
func (f *fixedEmbedder) Name() string    { return "fixed" }

func clusterFixture() (*fixedEmbedder, []search.Result) {
	embedder := &fixedEmbedder{vectors: map[string][]float32{
		"nos vemos en la playa":        {1, 0, 0},
		"la playa estuvo increíble":    {0.9, 0.1, 0},
		"mañana voy a la playa":        {0.95, 0.05, 0},
		"pago de la factura pendiente": {0, 1, 0},
		"el banco confirmó el pago":    {0.05, 0.95, 0},
	}}
	var msgs []search.Result
	for _, text := range []string{
		"nos vemos en la playa",
		"la playa estuvo increíble",
		"mañana voy a la playa",
		"pago de la factura pendiente",
		"el banco confirmó el pago",
	} {
		msgs = append(msgs, search.Result{ChatID: "c1", Message: text})
	}
	return embedder, msgs
}

func TestClusterMessagesSeparatesGroups(t *testing.T) {
	embedder, msgs := clusterFixture()

	clusters, err := ClusterMessages(context.Background(), embedder, msgs, 0)
	if err != nil {
		t.Fatalf("ClusterMessages() error = %v", err)
	}

	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters for 5 messages, got %d", len(clusters))
	}
	if clusters[0].Size != 3 || clusters[1].Size != 2 {
		t.Errorf("expected sizes [3 2], got [%d %d]", clusters[0].Size, clusters[1].Size)
	}
	if clusters[0].ID != 1 || clusters[1].ID != 2 {
		t.Errorf("expected IDs renumbered from 1, got [%d %d]", clusters[0].ID, clusters[1].ID)
	}
	for _, c := range clusters {
		if c.Cohesion < 0.9 {
			t.Errorf("cluster %d cohesion = %f, want tight grouping", c.ID, c.Cohesion)
		}
		if len(c.Examples) == 0 {
			t.Errorf("cluster %d has no examples", c.ID)
		}
	}

	beach := map[string]bool{
		"nos vemos en la playa":     true,
		"la playa estuvo increíble": true,
		"mañana voy a la playa":     true,
	}
	for _, ex := range clusters[0].Examples {
		if !beach[ex] {
			t.Errorf("beach cluster contains %q", ex)
		}
	}
	for _, ex := range clusters[1].Examples {
		if beach[ex] {
			t.Errorf("payment cluster contains beach message %q", ex)
		}
	}
}

func TestClusterMessagesDeterministic(t *testing.T) {
	embedder, msgs := clusterFixture()

	first, err := ClusterMessages(context.Background(), embedder, msgs, 0)
	if err != nil {
		t.Fatalf("first run error = %v", err)
	}
	second, err := ClusterMessages(context.Background(), embedder, msgs, 0)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs differ:\n%+v\n%+v", first, second)
	}
}

func TestClusterMessagesEmpty(t *testing.T) {
	embedder := &fixedEmbedder{}

	clusters, err := ClusterMessages(context.Background(), embedder, nil, 0)
	if err != nil {
		t.Fatalf("ClusterMessages() error = %v", err)
	}
	if clusters != nil {
		t.Errorf("expected nil clusters, got %+v", clusters)
	}
}

func TestClusterMessagesSingle(t *testing.T) {
	embedder := &fixedEmbedder{vectors: map[string][]float32{"hola": {1, 0, 0}}}
	msgs := []search.Result{{Message: "hola"}}

	clusters, err := ClusterMessages(context.Background(), embedder, msgs, 0)
	if err != nil {
		t.Fatalf("ClusterMessages() error = %v", err)
	}
	if len(clusters) != 1 || clusters[0].Size != 1 {
		t.Fatalf("expected one singleton cluster, got %+v", clusters)
	}
	if clusters[0].Cohesion < 0.999 {
		t.Errorf("singleton cohesion = %f, want ~1", clusters[0].Cohesion)
	}
	if len(clusters[0].Examples) != 1 || clusters[0].Examples[0] != "hola" {
		t.Errorf("unexpected examples: %v", clusters[0].Examples)
	}
}

func TestChooseK(t *testing.T) {
	cases := []struct{ n, want int }{
		{1, 1},
		{2, 2},
		{3, 2},
		{5, 2},
		{10, 3},
		{100, 10},
	}
	for _, tc := range cases {
		if got := chooseK(tc.n); got != tc.want {
			t.Errorf("chooseK(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}
