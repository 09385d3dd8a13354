// Package view hosts a mosaic run in an Ebitengine window.
//
// A [Game] owns a [mosaic.Scheduler] and ticks it once per frame. Published
// leaves go to a [Canvas], which draws each block as a tinted [WhitePixel]
// and fades freshly split blocks in from their parent's color. An [Overlay]
// shows live counters, [Controls] map keys to the live settings, and a
// [TestRunner] can drive the same settings from a JSON script for automated
// screenshots.
//
//	g, err := view.NewGame(img, view.DefaultGameConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := view.Run(g, view.RunConfig{Title: "mosaic"}); err != nil {
//		log.Fatal(err)
//	}
package view
