package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"path"
	"strings"
)

var (
	// ErrInvalidAsset is returned for files that are not valid glTF 2.0 or GLB containers.
	ErrInvalidAsset = errors.New("loader: invalid glTF asset")

	// ErrUnsupported is returned for valid glTF features the importer does not handle,
	// such as sparse accessors or non-triangle topologies.
	ErrUnsupported = errors.New("loader: unsupported glTF feature")
)

// parser reads one glTF or GLB file and its external buffers from a file system.
type parser struct {
	fsys fs.FS
	dir  string
	doc  *gltfDocument
}

// parse reads name from fsys. The format is chosen by the GLB magic, so .glb files with
// a wrong extension still load.
//
// Parameters:
//   - fsys: the file system holding the asset and its buffers
//   - name: slash separated path of the asset inside fsys
//
// Returns:
//   - *parser: the parser holding the decoded document
//   - error: ErrInvalidAsset, ErrUnsupported or a read error
func parse(fsys fs.FS, name string) (*parser, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	p := &parser{fsys: fsys, dir: path.Dir(name)}
	if err := p.decode(data); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return p, nil
}

func (p *parser) decode(data []byte) error {
	var bin []byte
	if len(data) >= 4 && binary.LittleEndian.Uint32(data) == glbMagic {
		var err error
		data, bin, err = splitGLB(data)
		if err != nil {
			return err
		}
	}

	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return fmt.Errorf("%w: version %q", ErrInvalidAsset, doc.Asset.Version)
	}

	for i := range doc.Buffers {
		buf := &doc.Buffers[i]
		switch {
		case buf.URI == "" && i == 0 && bin != nil:
			buf.data = bin
		case buf.URI == "":
			return fmt.Errorf("%w: buffer %d has no data", ErrInvalidAsset, i)
		default:
			d, err := p.readURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.data = d
		}
		if len(buf.data) < buf.ByteLength {
			return fmt.Errorf("%w: buffer %d holds %d of %d bytes", ErrInvalidAsset, i, len(buf.data), buf.ByteLength)
		}
	}

	p.doc = &doc
	return nil
}

// splitGLB returns the JSON and binary chunks of a GLB container.
func splitGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	r := bytes.NewReader(data)
	var header glbHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, nil, fmt.Errorf("%w: GLB header: %v", ErrInvalidAsset, err)
	}
	if header.Version != glbVersion {
		return nil, nil, fmt.Errorf("%w: GLB version %d", ErrInvalidAsset, header.Version)
	}

	for {
		var chunk glbChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("%w: GLB chunk header: %v", ErrInvalidAsset, err)
		}
		if int64(chunk.Length) > int64(r.Len()) {
			return nil, nil, fmt.Errorf("%w: GLB chunk of %d bytes exceeds the file", ErrInvalidAsset, chunk.Length)
		}
		payload := make([]byte, chunk.Length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("%w: GLB chunk: %v", ErrInvalidAsset, err)
		}
		switch chunk.Type {
		case glbChunkJSON:
			jsonChunk = payload
		case glbChunkBIN:
			binChunk = payload
		}
	}
	if jsonChunk == nil {
		return nil, nil, fmt.Errorf("%w: GLB has no JSON chunk", ErrInvalidAsset)
	}
	return jsonChunk, binChunk, nil
}

// readURI resolves a base64 data URI or a path relative to the asset.
func (p *parser) readURI(uri string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(uri, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("%w: data URI encoding %q", ErrUnsupported, header)
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: data URI: %v", ErrInvalidAsset, err)
		}
		return data, nil
	}
	data, err := fs.ReadFile(p.fsys, path.Join(p.dir, uri))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}
	return data, nil
}

// bufferView returns the bytes of a buffer view.
func (p *parser) bufferView(index int) ([]byte, error) {
	if index < 0 || index >= len(p.doc.BufferViews) {
		return nil, fmt.Errorf("%w: bufferView %d out of range", ErrInvalidAsset, index)
	}
	bv := p.doc.BufferViews[index]
	if bv.Buffer < 0 || bv.Buffer >= len(p.doc.Buffers) {
		return nil, fmt.Errorf("%w: buffer %d out of range", ErrInvalidAsset, bv.Buffer)
	}
	data := p.doc.Buffers[bv.Buffer].data
	if bv.ByteOffset+bv.ByteLength > len(data) {
		return nil, fmt.Errorf("%w: bufferView %d exceeds its buffer", ErrInvalidAsset, index)
	}
	return data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength], nil
}

// elements calls fn with the raw bytes of every element of an accessor.
func (p *parser) elements(index int, fn func(i int, elem []byte)) (*gltfAccessor, error) {
	if index < 0 || index >= len(p.doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d out of range", ErrInvalidAsset, index)
	}
	acc := &p.doc.Accessors[index]
	if acc.Sparse != nil {
		return nil, fmt.Errorf("%w: sparse accessor %d", ErrUnsupported, index)
	}
	if acc.BufferView == nil {
		return nil, fmt.Errorf("%w: accessor %d has no bufferView", ErrUnsupported, index)
	}
	size := componentSize(acc.ComponentType) * componentCount(acc.Type)
	if size == 0 {
		return nil, fmt.Errorf("%w: accessor %d has type %s/%d", ErrInvalidAsset, index, acc.Type, acc.ComponentType)
	}

	view, err := p.bufferView(*acc.BufferView)
	if err != nil {
		return nil, err
	}
	stride := size
	if bs := p.doc.BufferViews[*acc.BufferView].ByteStride; bs != nil && *bs > 0 {
		stride = *bs
	}
	if acc.Count > 0 && acc.ByteOffset+(acc.Count-1)*stride+size > len(view) {
		return nil, fmt.Errorf("%w: accessor %d exceeds its bufferView", ErrInvalidAsset, index)
	}

	for i := range acc.Count {
		off := acc.ByteOffset + i*stride
		fn(i, view[off:off+size])
	}
	return acc, nil
}

// readFloats reads an accessor with n components per element as float32. Integer
// components are converted, normalized ones mapped to [0, 1] or [-1, 1].
func (p *parser) readFloats(index, n int) ([]float32, error) {
	if index < 0 || index >= len(p.doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d out of range", ErrInvalidAsset, index)
	}
	acc := &p.doc.Accessors[index]
	if componentCount(acc.Type) != n {
		return nil, fmt.Errorf("%w: accessor %d is %s, want %d components", ErrInvalidAsset, index, acc.Type, n)
	}
	cs := componentSize(acc.ComponentType)
	out := make([]float32, 0, acc.Count*n)
	_, err := p.elements(index, func(_ int, elem []byte) {
		for c := range n {
			out = append(out, decodeComponent(elem[c*cs:], acc.ComponentType, acc.Normalized))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// readIndices reads a scalar unsigned integer accessor.
func (p *parser) readIndices(index int) ([]uint32, error) {
	if index < 0 || index >= len(p.doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d out of range", ErrInvalidAsset, index)
	}
	componentType := p.doc.Accessors[index].ComponentType
	out := make([]uint32, 0, p.doc.Accessors[index].Count)
	var bad bool
	acc, err := p.elements(index, func(_ int, elem []byte) {
		switch componentType {
		case componentUnsignedByte:
			out = append(out, uint32(elem[0]))
		case componentUnsignedShort:
			out = append(out, uint32(binary.LittleEndian.Uint16(elem)))
		case componentUnsignedInt:
			out = append(out, binary.LittleEndian.Uint32(elem))
		default:
			bad = true
		}
	})
	if err != nil {
		return nil, err
	}
	if bad || acc.Type != "SCALAR" {
		return nil, fmt.Errorf("%w: index accessor %d is %s/%d", ErrInvalidAsset, index, acc.Type, acc.ComponentType)
	}
	return out, nil
}

func decodeComponent(b []byte, componentType int, normalized bool) float32 {
	switch componentType {
	case componentFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case componentUnsignedByte:
		if normalized {
			return float32(b[0]) / 255
		}
		return float32(b[0])
	case componentByte:
		if normalized {
			return max(float32(int8(b[0]))/127, -1)
		}
		return float32(int8(b[0]))
	case componentUnsignedShort:
		v := binary.LittleEndian.Uint16(b)
		if normalized {
			return float32(v) / 65535
		}
		return float32(v)
	case componentShort:
		v := int16(binary.LittleEndian.Uint16(b))
		if normalized {
			return max(float32(v)/32767, -1)
		}
		return float32(v)
	case componentUnsignedInt:
		return float32(binary.LittleEndian.Uint32(b))
	}
	return 0
}
