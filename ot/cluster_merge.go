package ot

// mergeClusterRun widens a cluster-id run in the shaping output buffer so
// every glyph in [start, end) shares the lowest cluster value present in
// that range, then grows start/end outward to absorb neighboring glyphs
// that already carry the same cluster id. Thai's Sara Am reordering and
// Hangul's Jamo composition/decomposition both need this after splicing
// the output buffer, since neither operation may leave a glyph stranded
// with a cluster id that no longer matches its neighbors.
// HarfBuzz equivalent: merge_out_clusters() in hb-buffer.cc.
func mergeClusterRun(buf *Buffer, start, end int) {
	if end-start < 2 {
		return
	}

	lowest := buf.outInfo[start].Cluster
	for i := start + 1; i < end; i++ {
		if buf.outInfo[i].Cluster < lowest {
			lowest = buf.outInfo[i].Cluster
		}
	}

	for start > 0 && buf.outInfo[start-1].Cluster == buf.outInfo[start].Cluster {
		start--
	}
	for end < buf.outLen && buf.outInfo[end-1].Cluster == buf.outInfo[end].Cluster {
		end++
	}

	for i := start; i < end; i++ {
		buf.outInfo[i].Cluster = lowest
	}
}
