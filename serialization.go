package ferret

import (
	"math"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SERIALIZATION: Saving and Loading the Index
// ═══════════════════════════════════════════════════════════════════════════════
// Why serialize?
// - Save index to disk for persistence
// - Send index over network
// - Create backups
//
// BINARY FORMAT:
// --------------
// Built on codec.go's Cursor/Put* primitives (the same varuint + fixed-width
// codec the on-disk stores use) rather than a one-off encoding/binary
// pass, so this hybrid in-memory index serializes with the same byte
// grammar as the rest of the package:
// - Smaller file size than JSON (important for large indexes)
// - Faster to parse than JSON
// - Preserves exact structure (including skip list towers)
//
// FORMAT STRUCTURE:
// -----------------
// For each term:
//   [term_length: varuint][term: bytes]
//   [node_data_length: varuint][node_data: positions...]
//   [tower_data: for each node...]
//
// ENCODING STRATEGY:
// ------------------
// The tricky part is encoding the skip list tower structure:
// 1. Assign each node a sequential index (1, 2, 3, ...)
// 2. Store node positions (DocID, Offset pairs)
// 3. Store tower pointers as indices (not memory addresses!)
//
// Why use indices instead of pointers?
// - Pointers are meaningless after deserialization (different memory locations)
// - Indices are stable and can be reconstructed
//
// ═══════════════════════════════════════════════════════════════════════════════

// Encode serializes the inverted index to binary format
//
// BINARY FORMAT:
// --------------
// [Header]
//   - TotalDocs: varuint
//   - TotalTerms: varuint
//   - BM25.K1: fixed64 (IEEE-754 bit pattern)
//   - BM25.B: fixed64 (IEEE-754 bit pattern)
//   - NumDocStats: varuint
//
// [Document Statistics] (for each document)
//   - DocID: varuint
//   - Length: varuint
//   - NumTerms: varuint
//   - For each term:
//   - Term: varuint-length-prefixed bytes
//   - Frequency: varuint
//
// [Posting Lists] (existing format)
//   - For each term...
func (idx *InvertedIndex) Encode() ([]byte, error) {
	var buf []byte
	buf = idx.encodeHeader(buf)
	buf = idx.encodeDocStats(buf)

	encoder := newIndexEncoder(buf)
	for term, skipList := range idx.PostingsList {
		encoder.encodeTerm(term, skipList)
	}
	return encoder.buffer, nil
}

// encodeHeader writes the index metadata
func (idx *InvertedIndex) encodeHeader(buf []byte) []byte {
	buf = PutUvarint(buf, uint64(idx.TotalDocs))
	buf = PutUvarint(buf, uint64(idx.TotalTerms))
	buf = PutU64(buf, math.Float64bits(idx.BM25Params.K1))
	buf = PutU64(buf, math.Float64bits(idx.BM25Params.B))
	buf = PutUvarint(buf, uint64(len(idx.DocStats)))
	return buf
}

// encodeDocStats writes document statistics for BM25
func (idx *InvertedIndex) encodeDocStats(buf []byte) []byte {
	for _, docStats := range idx.DocStats {
		buf = PutUvarint(buf, uint64(docStats.DocID))
		buf = PutUvarint(buf, uint64(docStats.Length))
		buf = PutUvarint(buf, uint64(len(docStats.TermFreqs)))

		for term, freq := range docStats.TermFreqs {
			buf = PutUvarint(buf, uint64(len(term)))
			buf = append(buf, term...)
			buf = PutUvarint(buf, uint64(freq))
		}
	}
	return buf
}

// indexEncoder handles the encoding process
//
// This encapsulates the encoding state and provides helper methods.
// Using a growable []byte is cheaper than a bytes.Buffer here since every
// write is a small, known-shape append.
type indexEncoder struct {
	buffer []byte
}

func newIndexEncoder(buffer []byte) *indexEncoder {
	return &indexEncoder{buffer: buffer}
}

// encodeTerm serializes a single term and its skip list
//
// THREE-PHASE ENCODING:
// ---------------------
// Phase 1: Write the term name
// Phase 2: Write node positions (DocID, Offset pairs)
// Phase 3: Write tower structure (how nodes link together)
func (e *indexEncoder) encodeTerm(term string, skipList SkipList) {
	e.writeString(term)

	nodeMap := e.buildNodeIndexMap(skipList)
	e.writeBytes(e.encodeNodePositions(skipList))
	e.encodeTowerStructure(skipList, nodeMap)
}

// writeString writes a varuint-length-prefixed string
func (e *indexEncoder) writeString(s string) {
	e.buffer = PutUvarint(e.buffer, uint64(len(s)))
	e.buffer = append(e.buffer, s...)
}

// writeBytes writes a varuint-length-prefixed byte array
func (e *indexEncoder) writeBytes(data []byte) {
	e.buffer = PutUvarint(e.buffer, uint64(len(data)))
	e.buffer = append(e.buffer, data...)
}

// buildNodeIndexMap creates a mapping from node positions to sequential indices
//
// WHY DO WE NEED THIS?
// --------------------
// Skip list nodes are connected via pointers (memory addresses), which
// can't be serialized. Each node gets a stable index (1, 2, 3, ...)
// instead, so towers can be encoded as "node 1 points to node 3".
func (e *indexEncoder) buildNodeIndexMap(skipList SkipList) map[nodePosition]int {
	nodeMap := make(map[nodePosition]int)
	current := skipList.Head
	index := 1 // Start from 1 (0 means nil/null)

	for current != nil {
		pos := nodePosition{
			DocID:    int32(current.Key.DocumentID),
			Position: int32(current.Key.Offset),
		}
		nodeMap[pos] = index
		index++
		current = current.Tower[0]
	}

	return nodeMap
}

// encodeNodePositions serializes all node positions (DocID, Offset pairs)
// as fixed-width int32s, so decodeNodePositions can size its loop purely
// from the byte count without re-parsing varuints.
func (e *indexEncoder) encodeNodePositions(skipList SkipList) []byte {
	var buf []byte
	current := skipList.Head

	for current != nil {
		buf = PutU32(buf, uint32(int32(current.Key.DocumentID)))
		buf = PutU32(buf, uint32(int32(current.Key.Offset)))
		current = current.Tower[0]
	}

	return buf
}

// encodeTowerStructure serializes the skip list tower connections
//
// For each node, we encode which nodes its tower points to (as indices).
func (e *indexEncoder) encodeTowerStructure(skipList SkipList, nodeMap map[nodePosition]int) {
	current := skipList.Head

	for current != nil {
		e.writeBytes(e.encodeTowerForNode(current, nodeMap))
		current = current.Tower[0]
	}
}

// encodeTowerForNode encodes the tower structure for a single node as a
// run of fixed-width uint16 indices (0 = no pointer at that level).
func (e *indexEncoder) encodeTowerForNode(node *Node, nodeMap map[nodePosition]int) []byte {
	var buf []byte
	indices := e.collectTowerIndices(node, nodeMap)

	if len(indices) == 0 {
		buf = append(buf, 0, 0)
		return buf
	}
	for _, index := range indices {
		buf = append(buf, byte(index>>8), byte(index))
	}
	return buf
}

// collectTowerIndices extracts tower pointers and converts them to indices
func (e *indexEncoder) collectTowerIndices(node *Node, nodeMap map[nodePosition]int) []int {
	var indices []int

	for level := 0; level < MaxHeight; level++ {
		if node.Tower[level] == nil {
			break
		}
		pos := nodePosition{
			DocID:    int32(node.Tower[level].Key.DocumentID),
			Position: int32(node.Tower[level].Key.Offset),
		}
		indices = append(indices, nodeMap[pos])
	}

	return indices
}

// nodePosition represents a compact node position for encoding
//
// int32 matches the internal representation's range of valid document
// IDs and offsets. Head is indexed too (as node 1) and is written with
// its zero-valued Key; the float64 sentinels BOF/EOF are never stored in
// a node, so they never reach this path.
type nodePosition struct {
	DocID    int32
	Position int32
}

// ═══════════════════════════════════════════════════════════════════════════════
// DESERIALIZATION: Loading the Index from Binary Data
// ═══════════════════════════════════════════════════════════════════════════════
// This is the reverse of encoding - we read the binary data and reconstruct
// the header, document statistics and every term's skip list including all
// skip list pointers. DocBitmaps are not part of the format and are not
// rebuilt.
//
// THREE-PHASE DECODING:
// ---------------------
// Phase 1: Read term names and node positions
// Phase 2: Create node objects
// Phase 3: Reconstruct tower pointers (the tricky part!)
//
// ═══════════════════════════════════════════════════════════════════════════════

// Decode deserializes binary data back into an inverted index
func (idx *InvertedIndex) Decode(data []byte) error {
	c := NewCursor(data)
	if err := idx.decodeHeader(c); err != nil {
		return err
	}
	if err := idx.decodeDocStats(c); err != nil {
		return err
	}

	recoveredIndex := make(map[string]SkipList)
	for c.Remaining() > 0 {
		term, skipList, err := decodeTerm(c)
		if err != nil {
			return err
		}
		recoveredIndex[term] = skipList
	}

	idx.PostingsList = recoveredIndex
	return nil
}

// decodeHeader reads the index metadata
func (idx *InvertedIndex) decodeHeader(c *Cursor) error {
	totalDocs, err := c.ReadUvarint()
	if err != nil {
		return err
	}
	idx.TotalDocs = int(totalDocs)

	totalTerms, err := c.ReadUvarint()
	if err != nil {
		return err
	}
	idx.TotalTerms = int64(totalTerms)

	k1, err := c.ReadU64()
	if err != nil {
		return err
	}
	idx.BM25Params.K1 = math.Float64frombits(k1)

	b, err := c.ReadU64()
	if err != nil {
		return err
	}
	idx.BM25Params.B = math.Float64frombits(b)

	return nil
}

// decodeDocStats reads document statistics
func (idx *InvertedIndex) decodeDocStats(c *Cursor) error {
	numDocs, err := c.ReadUvarint()
	if err != nil {
		return err
	}

	idx.DocStats = make(map[int]DocumentStats, numDocs)

	for i := uint64(0); i < numDocs; i++ {
		docID, err := c.ReadUvarint()
		if err != nil {
			return err
		}
		length, err := c.ReadUvarint()
		if err != nil {
			return err
		}
		numTerms, err := c.ReadUvarint()
		if err != nil {
			return err
		}

		docStats := DocumentStats{
			DocID:     int(docID),
			Length:    int(length),
			TermFreqs: make(map[string]int, numTerms),
		}

		for j := uint64(0); j < numTerms; j++ {
			termLen, err := c.ReadUvarint()
			if err != nil {
				return err
			}
			termBytes, err := c.ReadBytes(int(termLen))
			if err != nil {
				return err
			}
			freq, err := c.ReadUvarint()
			if err != nil {
				return err
			}
			docStats.TermFreqs[string(termBytes)] = int(freq)
		}

		idx.DocStats[int(docID)] = docStats
	}

	return nil
}

// decodeTerm decodes a single term and its skip list
func decodeTerm(c *Cursor) (string, SkipList, error) {
	term, err := readString(c)
	if err != nil {
		return "", SkipList{}, err
	}

	nodeMap, err := decodeNodePositions(c)
	if err != nil {
		return "", SkipList{}, err
	}

	height, err := decodeTowerStructure(c, nodeMap)
	if err != nil {
		return "", SkipList{}, err
	}

	skipList := SkipList{
		Head:   nodeMap[1], // First node is always at index 1
		Height: height,
	}

	return term, skipList, nil
}

// readString reads a varuint-length-prefixed string
func readString(c *Cursor) (string, error) {
	length, err := c.ReadUvarint()
	if err != nil {
		return "", err
	}
	b, err := c.ReadBytes(int(length))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeNodePositions reconstructs all nodes from their serialized
// fixed-width (DocID, Offset) int32 pairs, assigning each a sequential
// index starting at 1.
func decodeNodePositions(c *Cursor) (map[int]*Node, error) {
	dataLength, err := c.ReadUvarint()
	if err != nil {
		return nil, err
	}

	nodeMap := make(map[int]*Node)
	nodeIndex := 1
	numValues := int(dataLength) / 4

	for i := 0; i < numValues; i += 2 {
		docID, err := c.ReadU32()
		if err != nil {
			return nil, err
		}
		offset, err := c.ReadU32()
		if err != nil {
			return nil, err
		}

		node := &Node{
			Key: Position{
				DocumentID: float64(int32(docID)),
				Offset:     float64(int32(offset)),
			},
		}
		nodeMap[nodeIndex] = node
		nodeIndex++
	}

	return nodeMap, nil
}

// decodeTowerStructure reconstructs the skip list tower connections from
// fixed-width uint16 node indices (0 = no pointer at that level).
func decodeTowerStructure(c *Cursor, nodeMap map[int]*Node) (int, error) {
	maxHeight := 1
	nodeCount := len(nodeMap)

	for nodeIndex := 1; nodeIndex <= nodeCount; nodeIndex++ {
		towerLength, err := c.ReadUvarint()
		if err != nil {
			return 0, err
		}
		numIndices := int(towerLength) / 2

		for level := 0; level < numIndices; level++ {
			raw, err := c.ReadBytes(2)
			if err != nil {
				return 0, err
			}
			targetIndex := int(raw[0])<<8 | int(raw[1])

			if targetIndex != 0 {
				nodeMap[nodeIndex].Tower[level] = nodeMap[targetIndex]
				if level+1 > maxHeight {
					maxHeight = level + 1
				}
			}
		}
	}

	return maxHeight, nil
}
