package chain

import "slices"

// StartAllParallel starts every chain and calls onAllCompleted once all of them have
// completed. Existing completion callbacks are kept and run first.
func StartAllParallel(onAllCompleted func(), chains ...*Chain) error {
	if len(chains) == 0 {
		if onAllCompleted != nil {
			onAllCompleted()
		}
		return nil
	}

	remaining := slices.Clone(chains)
	for _, c := range chains {
		prev := c.onCompleted
		c.onCompleted = func() {
			if prev != nil {
				prev()
			}
			remaining = slices.DeleteFunc(remaining, func(x *Chain) bool { return x == c })
			if len(remaining) == 0 && onAllCompleted != nil {
				onAllCompleted()
			}
		}
	}

	for _, c := range chains {
		if err := c.Start(nil); err != nil {
			return err
		}
	}
	return nil
}

// StartAllSequential starts the chains one after another: each chain's completion
// starts the next one, and the last one calls onAllCompleted. Existing completion
// callbacks are kept and run first. Only the first chain is started here; a later chain
// that was stopped before its turn is skipped.
func StartAllSequential(onAllCompleted func(), chains ...*Chain) error {
	if len(chains) == 0 {
		if onAllCompleted != nil {
			onAllCompleted()
		}
		return nil
	}

	var startFrom func(i int)
	startFrom = func(i int) {
		for ; i < len(chains); i++ {
			if chains[i].Finished() {
				continue
			}
			if err := chains[i].Start(nil); err != nil {
				panic(err)
			}
			return
		}
		if onAllCompleted != nil {
			onAllCompleted()
		}
	}

	for i, c := range chains {
		prev := c.onCompleted
		c.onCompleted = func() {
			if prev != nil {
				prev()
			}
			startFrom(i + 1)
		}
	}

	return chains[0].Start(nil)
}
