// Package mosaic progressively approximates a raster image with a quadtree of
// solid-color rectangles.
//
// The engine repeatedly splits the block whose colors deviate most from their
// average into four quadrants, so the most visually important regions resolve
// first and the image sharpens coarse-to-fine. Work is spread across many
// short ticks, which makes it suitable for driving from a game loop: each
// tick performs a bounded batch of splits and hands the new block set to a
// renderer.
//
// # Quick start
//
//	img, err := mosaic.LoadImage("photo.png")
//	if err != nil {
//		log.Fatal(err)
//	}
//	sched, err := mosaic.NewScheduler(mosaic.DefaultConfig(),
//		mosaic.WithRenderer(mosaic.RendererFunc(func(leaves []mosaic.Leaf) {
//			// draw each leaf.Bounds filled with leaf.Color
//		})),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := sched.Start(img); err != nil {
//		log.Fatal(err)
//	}
//	// once per frame:
//	sched.Tick()
//
// The view package provides a ready-made Ebitengine host (view.Run) that
// draws the blocks, fades new blocks in, shows live counters and maps keys to
// the live settings.
//
// # Algorithm
//
// Each block's score is the root-mean-squared RGB distance of its pixels from
// its average color ([ErrorScore]). A [Tree] keeps the current leaves and a
// max-heap of leaves whose score exceeds [Config.Threshold] and whose depth is
// below [Config.MaxDepth]. [Tree.Step] pops the highest-scoring leaf (equal
// scores pop oldest first) and replaces it with four analyzed children; east
// and south children take the remainder on odd sizes so leaves always tile the
// image exactly. A leaf whose halves would be smaller than
// [Config.MinBlockSize] is retired permanently.
//
// # Scheduling
//
// A [Scheduler] owns the tree and moves through the states Idle, Active,
// Exhausted and Capped. Lowering the threshold or raising the depth limit
// while exhausted re-queues leaves that now qualify and resumes work without
// a restart. Reaching [Config.MaxNodes] stops the run with a valid partial
// result. The scheduler is single-threaded and performs no I/O; [Scheduler.Tick] never
// yields mid-batch, so renderers never observe a half-applied split.
package mosaic
