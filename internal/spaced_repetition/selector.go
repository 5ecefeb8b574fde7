package spaced_repetition

import "github.com/hentity/fretty/pkg/models"

// SelectNext picks the next spot from the front of queue and returns it with
// the rest of the queue in its original order. Only the first Lookahead
// entries are considered; among them spots whose note letter differs from
// avoid are preferred. An empty avoid means no preference.
//
// queue must not be empty.
func (e *Engine) SelectNext(queue []models.Spot, avoid string) (models.Spot, []models.Spot) {
	if len(queue) == 0 {
		panic("spaced_repetition: SelectNext on an empty queue")
	}
	window := e.params.Lookahead
	if window > len(queue) {
		window = len(queue)
	}

	candidates := make([]int, 0, window)
	if avoid != "" {
		for i := 0; i < window; i++ {
			if queue[i].Letter() != avoid {
				candidates = append(candidates, i)
			}
		}
	}
	if len(candidates) == 0 {
		for i := 0; i < window; i++ {
			candidates = append(candidates, i)
		}
	}

	idx := candidates[e.rng.Intn(len(candidates))]
	rest := make([]models.Spot, 0, len(queue)-1)
	rest = append(rest, queue[:idx]...)
	rest = append(rest, queue[idx+1:]...)
	return queue[idx], rest
}
