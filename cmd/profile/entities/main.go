// Profiling:
// go build ./cmd/profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

package main

import (
	"github.com/pkg/profile"
	"github.com/sparsecs/sparsecs"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	count := 50
	iters := 10000
	numEntities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, numEntities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for range rounds {
		w := sparsecs.CreateWorld("profile", numEntities)
		for range iters {
			entities := w.CreateEntities(numEntities)
			for _, e := range entities {
				sparsecs.SetComponent(e, comp1{V: 1, W: 2})
				sparsecs.SetComponent(e, comp2{V: 3, W: 4})
			}
			for _, arch := range w.Archetypes() {
				c1 := sparsecs.Column[comp1](arch)
				c2 := sparsecs.Column[comp2](arch)
				for i := range c1 {
					c1[i].V += c2[i].V
					c1[i].W += c2[i].W
				}
			}
			for _, e := range entities {
				e.Destroy()
			}
		}
		w.Destroy()
	}
}
