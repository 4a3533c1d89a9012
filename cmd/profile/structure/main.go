// Profiling:
// go build ./cmd/profile/structure
// go tool pprof -http=":8000" -nodefraction=0.001 ./structure cpu.pprof

package main

import (
	"github.com/pkg/profile"
	"github.com/sparsecs/sparsecs"
)

type tagA struct{}
type tagB struct{}
type tagC struct{}

func main() {
	count := 20
	iters := 5000
	numEntities := 2000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, numEntities)
	p.Stop()
}

// run exercises the structure-event scheduler's deferred path: a batch of
// entities cycles through archetype transitions while iteration is
// notionally "in flight" (defer depth held positive), mirroring the
// access pattern a query layer would use around world.BeginDefer/EndDefer.
func run(rounds, iters, numEntities int) {
	for range rounds {
		w := sparsecs.CreateWorld("profile-structure", numEntities)
		entities := w.CreateEntities(numEntities)
		for _, e := range entities {
			sparsecs.SetComponent(e, tagA{})
		}

		for range iters {
			w.BeginDefer()
			for _, e := range entities {
				sparsecs.SetComponent(e, tagB{})
				sparsecs.RemoveComponent[tagA](e)
				sparsecs.SetComponent(e, tagA{})
				sparsecs.RemoveComponent[tagB](e)
			}
			w.EndDefer()
		}
		w.DestroyEmptyArchetypes()
		w.Destroy()
	}
}
