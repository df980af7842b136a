//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	sm "solarsoil/pkg/soiling"
)

var (
	lastOverlay *sm.Raster
	lastInfo    sm.ReportInfo
)

func main() {
	js.Global().Set("scoreTiles", js.FuncOf(scoreTiles))
	js.Global().Set("renderOverlay", js.FuncOf(renderOverlay))
	select {} // block forever
}

func scoreTiles(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorResult("usage: scoreTiles(fileBytes, referenceBytes, calibrationJSON, options)")
	}

	fileBytes := copyBytes(args[0])
	refBytes := copyBytes(args[1])
	calibJSON := []byte(args[2].String())

	cfg := sm.DefaultConfig()
	cfg.Workers = 1
	if len(args) >= 4 && args[3].Type() == js.TypeObject {
		opts := args[3]
		if v := opts.Get("tileSize"); v.Type() == js.TypeNumber {
			cfg.TileSize = v.Int()
		}
		if v := opts.Get("stride"); v.Type() == js.TypeNumber {
			cfg.Stride = v.Int()
		} else {
			cfg.Stride = cfg.TileSize / 2
		}
		if v := opts.Get("imageSize"); v.Type() == js.TypeNumber {
			cfg.ImageSize = v.Int()
		}
	}
	if err := cfg.Validate(); err != nil {
		return errorResult(err.Error())
	}

	profile, err := sm.ParseProfile(refBytes, calibJSON)
	if err != nil {
		return errorResult("Calibration error: " + err.Error())
	}
	src, err := sm.DecodeRaster(fileBytes)
	if err != nil {
		return errorResult("Image decode error: " + err.Error())
	}

	// Only the histogram encoder runs in the browser.
	enc := sm.NewHistogramEncoder(cfg.ImageSize)
	if enc.Dim() != len(profile.Reference) {
		return errorResult("Calibration error: reference was built with a different encoder")
	}

	ctx := context.Background()
	overall, err := sm.Score(ctx, enc, sm.PixelBuffer{Raster: src}, profile)
	if err != nil {
		return errorResult("Scoring error: " + err.Error())
	}
	result, err := sm.TileAndScore(ctx, enc, src, profile, cfg.TileOptions(true))
	if err != nil {
		return errorResult("Tiling error: " + err.Error())
	}

	overlay, err := result.Heatmap.Overlay(src, cfg.OverlayAlpha, cfg.OverlayBeta)
	if err != nil {
		return errorResult("Overlay error: " + err.Error())
	}
	scoreMap := result.ScoreMap
	zones := sm.SummarizeZones(scoreMap, result.Width, result.Height)
	lastOverlay = &overlay
	lastInfo = sm.ReportInfo{Score: overall, Tiles: scoreMap, Zones: zones}

	scores := scoreMap.Scores()
	jsResult := map[string]interface{}{
		"width":      result.Width,
		"height":     result.Height,
		"score":      overall,
		"category":   sm.Classify(overall).String(),
		"coverage":   sm.Coverage(overall),
		"tileSize":   cfg.TileSize,
		"stride":     cfg.Stride,
		"meanTile":   scoreMap.Mean(),
		"medianTile": sm.Percentile(scores, 50),
		"maxTile":    scoreMap.Max(),
		"degenerate": profile.Degenerate(),
	}

	jsTiles := make([]interface{}, len(scoreMap.Tiles))
	for i, t := range scoreMap.Tiles {
		jsTiles[i] = map[string]interface{}{
			"x":     t.Position.X,
			"y":     t.Position.Y,
			"score": t.Score,
		}
	}
	jsResult["tiles"] = jsTiles

	if zones != nil {
		jsZones := make([]interface{}, len(sm.ZoneOrder))
		for i, pos := range sm.ZoneOrder {
			z := zones.Zones[pos]
			jsZones[i] = map[string]interface{}{
				"label":     z.Label,
				"meanScore": z.MeanScore,
				"maxScore":  z.MaxScore,
				"tileCount": z.TileCount,
				"category":  z.Category.String(),
			}
		}
		jsResult["zones"] = map[string]interface{}{
			"zones":    jsZones,
			"dirtiest": zones.Dirtiest.String(),
			"cleanest": zones.Cleanest.String(),
			"spread":   zones.Spread,
			"reliable": zones.Reliable,
		}
	}

	return js.ValueOf(jsResult)
}

func renderOverlay(this js.Value, args []js.Value) interface{} {
	if lastOverlay == nil {
		return js.Null()
	}

	jpegBytes, err := sm.RenderReportBytes(*lastOverlay, lastInfo)
	if err != nil {
		return js.Null()
	}

	uint8Array := js.Global().Get("Uint8Array").New(len(jpegBytes))
	js.CopyBytesToJS(uint8Array, jpegBytes)
	return uint8Array
}

func copyBytes(v js.Value) []byte {
	out := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(out, v)
	return out
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}
