package jsondoc

import (
	"fmt"

	"github.com/lvillar/pdfjson/document"
)

// state identifies one level of the schema the reactor is enforcing.
// The state stack depth always equals the current container nesting
// depth; Initial and Top occur exactly once per parse, at the root.
//
//	                               | stInitial
//	{                              |   -> stTop
//	  "document": {                |   -> stDocument
//	    "objects": {               |   -> stObjects
//	      "obj:1 0 R": {           |   -> stObjectTop
//	        "value": {             |   -> stObject
//	          "/Type": "/Catalog"  |   ...
//	        }                      |   <- stObjectTop
//	      },                       |   <- stObjects
//	      "trailer": {             |   -> stTrailer
//	        "value": {...}         |   -> stObject
//	      }                        |   <- stObjects
//	    }                          |   <- stDocument
//	  }                            |   <- stTop
//	}                              |   <- stInitial
type state int

const (
	stInitial state = iota
	stTop
	stDocument
	stObjects
	stObjectTop
	stTrailer
	stStream
	stObject
	stIgnore
)

// bind says where a finished container node gets attached.
type bind int

const (
	bindNone       bind = iota // member of the enclosing container
	bindObject                 // table entry for frame.og
	bindTrailer                // the document trailer
	bindStreamDict             // dictionary of frame.stream
)

// frame is one in-progress container node. Containers are filled as
// their items arrive and attached when they close; all indirect
// references inside them are by ObjGen, so attachment order never
// affects identity or cycles.
type frame struct {
	isArray bool
	dict    document.Dict
	arr     document.Array
	key     document.Name // attach key when the parent frame is a dictionary
	bind    bind
	og      document.ObjGen  // bindObject target
	stream  *document.Stream // bindStreamDict target
	desc    string
}

// reactor materializes the object graph from structural parse events.
// It is created fresh per import call and discarded afterwards; the
// graph nodes it installs in the document outlive it.
type reactor struct {
	doc      *document.Document
	src      *source
	complete bool

	errs       []*SchemaError
	parseError bool

	sawDocument bool
	sawObjects  bool
	sawVersion  bool
	sawTrailer  bool

	state   state
	next    state
	states  []state
	frames  []*frame
	pending *frame

	curObject    string // "obj:n g R" or "trailer", for error context
	curOG        document.ObjGen
	curIsTrailer bool
	curStream    *document.Stream

	sawValue    bool
	sawStream   bool
	sawDict     bool
	sawData     bool
	sawDatafile bool

	reserved map[document.ObjGen]struct{}
}

func newReactor(doc *document.Document, src *source, complete bool) *reactor {
	return &reactor{
		doc:      doc,
		src:      src,
		complete: complete,
		state:    stInitial,
		next:     stTop,
		states:   []state{stInitial},
		frames:   []*frame{nil},
		reserved: make(map[document.ObjGen]struct{}),
	}
}

// error records one recoverable schema violation and continues.
func (r *reactor) error(offset int64, msg string) {
	r.errs = append(r.errs, &SchemaError{Object: r.curObject, Offset: offset, Msg: msg})
}

// nestedState transitions into next when the incoming value is a
// dictionary, as the schema requires; anything else is a recoverable
// error and the subtree is ignored.
func (r *reactor) nestedState(key string, v Value, next state) {
	if v.IsDict() {
		r.next = next
	} else {
		r.error(v.Start, fmt.Sprintf("%q must be a dictionary", key))
		r.skipSubtree(v)
	}
}

// skipSubtree ignores the offending value. The parse-error latch is
// only raised for containers: it is cleared when the enclosing object
// entry closes, and a scalar has no subtree to skip and no close event
// to clear it on.
func (r *reactor) skipSubtree(v Value) {
	r.next = stIgnore
	if v.Kind == KindDict || v.Kind == KindArray {
		r.parseError = true
	}
}

// reserveObject ensures og exists in the table, tracking it in the
// reservation set while it is still a forward reference.
func (r *reactor) reserveObject(og document.ObjGen) document.Reference {
	_, isReserved := r.doc.ReserveIfAbsent(og)
	if isReserved {
		r.reserved[og] = struct{}{}
	}
	return document.Reference{Number: og.ID, Generation: og.Gen}
}

// replaceObject installs the definition for og, ending any pending
// reservation. Identity is preserved: holders referencing og observe
// the new value without being revisited.
func (r *reactor) replaceObject(og document.ObjGen, obj document.Object, desc string) {
	delete(r.reserved, og)
	r.doc.Replace(og, obj)
	r.doc.SetDescription(og, desc)
}

func (r *reactor) describe(what string, offset int64) string {
	return fmt.Sprintf("%s, %s at offset %d", r.src.name, what, offset)
}

// containerStart pushes the current state and enters the state chosen
// by the key that introduced this container.
func (r *reactor) containerStart() {
	r.states = append(r.states, r.state)
	r.state = r.next
	r.frames = append(r.frames, r.pending)
	r.pending = nil
}

// DictionaryStart implements Reactor.
func (r *reactor) DictionaryStart() error {
	r.containerStart()
	return nil
}

// ArrayStart implements Reactor. An array at the document root is a
// fatal structural error.
func (r *reactor) ArrayStart() error {
	r.containerStart()
	if r.state == stTop {
		return ErrNotDictionary
	}
	return nil
}

// TopLevelScalar implements Reactor.
func (r *reactor) TopLevelScalar() error {
	return ErrNotDictionary
}

// ContainerEnd implements Reactor: pops the state and frame stacks,
// runs the closing validation for the level being returned to, and
// attaches the finished container.
func (r *reactor) ContainerEnd(v Value) error {
	if len(r.states) <= 1 || len(r.frames) <= 1 {
		return fmt.Errorf("jsondoc: internal error: empty state stack at container end")
	}
	f := r.frames[len(r.frames)-1]
	r.frames = r.frames[:len(r.frames)-1]
	r.state = r.states[len(r.states)-1]
	r.states = r.states[:len(r.states)-1]

	switch r.state {
	case stInitial:
		r.checkRoot()
	case stObjects:
		r.closeObjectEntry(v)
	case stObjectTop:
		r.closeStreamEntry(v)
	case stDocument:
		// A reservation still open when the root object closes means
		// the target was referenced but never defined: it becomes the
		// null object, not an error.
		for og := range r.reserved {
			r.doc.Replace(og, document.Null{})
		}
		r.reserved = make(map[document.ObjGen]struct{})
	}

	if f != nil && !r.parseError {
		return r.attach(f)
	}
	return nil
}

// checkRoot validates the global flags once the whole document closes.
func (r *reactor) checkRoot() {
	if !r.sawDocument {
		r.error(0, `"document" object was not seen`)
		return
	}
	if r.complete && !r.sawVersion {
		r.error(0, `"document.pdfversion" was not seen`)
	}
	if !r.sawObjects {
		r.error(0, `"document.objects" was not seen`)
	} else if r.complete && !r.sawTrailer {
		r.error(0, `"document.objects.trailer" was not seen`)
	}
}

// closeObjectEntry validates and resets per-entry context when one
// object entry under "objects" closes.
func (r *reactor) closeObjectEntry(v Value) {
	if r.parseError {
		// The entry already produced a schema error; it is closed and
		// excluded from further validation.
	} else if r.curIsTrailer {
		if !r.sawValue {
			r.error(v.Start, `"trailer" is missing "value"`)
		}
	} else if r.sawValue == r.sawStream {
		r.error(v.Start, `object must have exactly one of "value" or "stream"`)
	}
	r.curObject = ""
	r.curIsTrailer = false
	r.curStream = nil
	r.sawValue = false
	r.sawStream = false
	r.sawDict = false
	r.sawData = false
	r.sawDatafile = false
	r.parseError = false
}

// closeStreamEntry validates the stream sub-dictionary when it closes.
func (r *reactor) closeStreamEntry(v Value) {
	if !r.sawStream {
		return
	}
	if !r.sawDict {
		r.error(v.Start, `"stream" is missing "dict"`)
	}
	if r.complete {
		if r.sawData == r.sawDatafile {
			r.error(v.Start, `"stream" must have exactly one of "data" or "datafile"`)
		}
	} else if r.sawData && r.sawDatafile {
		r.error(v.Start, `"stream" may have at most one of "data" or "datafile"`)
	}
}

// attach installs a finished container where its frame says it belongs.
func (r *reactor) attach(f *frame) error {
	var node document.Object
	if f.isArray {
		node = f.arr
	} else {
		node = f.dict
	}
	switch f.bind {
	case bindObject:
		r.replaceObject(f.og, node, f.desc)
	case bindTrailer:
		r.doc.SetTrailer(f.dict)
		r.doc.SetTrailerDescription(f.desc)
	case bindStreamDict:
		if f.stream == nil {
			return fmt.Errorf("jsondoc: internal error: stream dictionary with no stream")
		}
		f.stream.Dict = f.dict
	default:
		parent := r.frames[len(r.frames)-1]
		if parent == nil {
			return fmt.Errorf("jsondoc: internal error: no enclosing container for value")
		}
		if parent.isArray {
			parent.arr = append(parent.arr, node)
		} else {
			parent.dict[f.key] = node
		}
	}
	return nil
}

// DictionaryItem implements Reactor: enforces the schema for the
// current state and drives node construction.
func (r *reactor) DictionaryItem(key string, v Value) error {
	switch r.state {
	case stIgnore:
		// Unknown subtrees are consumed silently.
	case stTop:
		if key == "document" {
			r.sawDocument = true
			r.nestedState(key, v, stDocument)
		} else {
			// Other top-level keys are allowed for callers' own use.
			r.next = stIgnore
		}
	case stDocument:
		r.documentItem(key, v)
	case stObjects:
		r.objectsItem(key, v)
	case stObjectTop:
		return r.objectTopItem(key, v)
	case stTrailer:
		r.trailerItem(key, v)
	case stStream:
		return r.streamItem(key, v)
	case stObject:
		return r.objectItem(key, v)
	default:
		return fmt.Errorf("jsondoc: internal error: unknown state %d", r.state)
	}
	return nil
}

// documentItem handles keys directly under "document".
func (r *reactor) documentItem(key string, v Value) {
	switch key {
	case "pdfversion":
		r.sawVersion = true
		if v.IsString() && pdfVersionRe.MatchString(v.Str) {
			r.doc.SetVersion(v.Str)
		} else {
			r.error(v.Start, "invalid PDF version (must be x.y)")
		}
		r.ignoreContainer(v)
	case "objects":
		r.sawObjects = true
		r.nestedState(key, v, stObjects)
	default:
		// Unknown keys, including export-only "maxobjectid", are
		// ignored for forward compatibility.
		r.next = stIgnore
	}
}

// ignoreContainer routes a container that arrived where a scalar was
// expected into the ignore state, so its events do not run under a
// stale transition.
func (r *reactor) ignoreContainer(v Value) {
	if v.Kind == KindDict || v.Kind == KindArray {
		r.next = stIgnore
	}
}

// objectsItem handles one entry key under "objects".
func (r *reactor) objectsItem(key string, v Value) {
	if key == "trailer" {
		r.sawTrailer = true
		r.nestedState(key, v, stTrailer)
		r.curObject = "trailer"
		r.curIsTrailer = true
		return
	}
	if m := objKeyRe.FindStringSubmatch(key); m != nil {
		og := parseObjGen(m[1], m[2])
		r.reserveObject(og)
		r.nestedState(key, v, stObjectTop)
		r.curObject = key
		r.curOG = og
		r.curIsTrailer = false
		return
	}
	r.error(v.Start, `object key should be "trailer" or "obj:n n R"`)
	r.skipSubtree(v)
}

// objectTopItem handles "value"/"stream" under one object entry.
func (r *reactor) objectTopItem(key string, v Value) error {
	switch key {
	case "value":
		// Not nestedState: a value may have any type.
		r.sawValue = true
		r.next = stObject
		desc := r.describe(r.curObject, v.Start)
		if v.Kind == KindDict || v.Kind == KindArray {
			r.pending = r.newFrame(v, bindObject, "")
			r.pending.og = r.curOG
			r.pending.desc = desc
			return nil
		}
		obj, err := r.makeScalar(v)
		if err != nil {
			return err
		}
		r.replaceObject(r.curOG, obj, desc)
	case "stream":
		r.sawStream = true
		r.nestedState(key, v, stStream)
		if !v.IsDict() {
			return nil
		}
		if existing, _ := r.doc.Object(r.curOG); existing != nil {
			if s, ok := existing.(*document.Stream); ok {
				// Updating an existing stream in place.
				r.curStream = s
				return nil
			}
		}
		delete(r.reserved, r.curOG)
		r.curStream = r.doc.ReserveStream(r.curOG)
		r.doc.SetDescription(r.curOG, r.describe(r.curObject, v.Start))
	default:
		// Unknown keys are ignored for forward compatibility.
		r.next = stIgnore
	}
	return nil
}

// trailerItem handles keys under "trailer".
func (r *reactor) trailerItem(key string, v Value) {
	switch key {
	case "value":
		r.sawValue = true
		// The trailer must be a dictionary.
		r.nestedState("trailer.value", v, stObject)
		if v.IsDict() {
			r.pending = r.newFrame(v, bindTrailer, "")
			r.pending.desc = r.describe("trailer", v.Start)
		}
	case "stream":
		r.error(v.Start, "the trailer may not be a stream")
		r.skipSubtree(v)
	default:
		r.next = stIgnore
	}
}

// streamItem handles "dict"/"data"/"datafile" under a stream entry.
func (r *reactor) streamItem(key string, v Value) error {
	if r.curStream == nil {
		r.error(v.Start, "this object is not a stream")
		r.skipSubtree(v)
		return nil
	}
	switch key {
	case "dict":
		r.sawDict = true
		// A stream dictionary must be a dictionary.
		r.nestedState("stream.dict", v, stObject)
		if v.IsDict() {
			r.pending = r.newFrame(v, bindStreamDict, "")
			r.pending.stream = r.curStream
		}
	case "data":
		r.sawData = true
		if !v.IsString() {
			r.error(v.Start, `"stream.data" must be a string`)
			r.ignoreContainer(v)
			return nil
		}
		// The value's span includes the quotes; the payload range must
		// exclude them.
		payload, err := document.Base64Region(r.src.readerAt(), v.Start+1, v.End-1)
		if err != nil {
			return err
		}
		r.curStream.SetPayload(payload)
	case "datafile":
		r.sawDatafile = true
		if !v.IsString() {
			r.error(v.Start, `"stream.datafile" must be a string containing a file name`)
			r.ignoreContainer(v)
			return nil
		}
		r.curStream.SetPayload(document.FilePayload(v.Str))
	default:
		r.next = stIgnore
	}
	return nil
}

// objectItem adds one member to the dictionary node being built.
func (r *reactor) objectItem(key string, v Value) error {
	if r.parseError {
		return nil
	}
	f := r.frames[len(r.frames)-1]
	if f == nil || f.isArray {
		return fmt.Errorf("jsondoc: internal error: no dictionary under construction")
	}
	name := dictKeyName(key)
	if v.Kind == KindDict || v.Kind == KindArray {
		r.pending = r.newFrame(v, bindNone, name)
		return nil
	}
	obj, err := r.makeScalar(v)
	if err != nil {
		return err
	}
	f.dict[name] = obj
	return nil
}

// ArrayItem implements Reactor: appends one element to the array node
// being built. Array items outside value construction are ignored.
func (r *reactor) ArrayItem(v Value) error {
	if r.state != stObject || r.parseError {
		return nil
	}
	f := r.frames[len(r.frames)-1]
	if f == nil || !f.isArray {
		return fmt.Errorf("jsondoc: internal error: no array under construction")
	}
	if v.Kind == KindDict || v.Kind == KindArray {
		r.pending = r.newFrame(v, bindNone, "")
		return nil
	}
	obj, err := r.makeScalar(v)
	if err != nil {
		return err
	}
	f.arr = append(f.arr, obj)
	return nil
}

// newFrame starts a container node for v.
func (r *reactor) newFrame(v Value, b bind, key document.Name) *frame {
	f := &frame{bind: b, key: key}
	if v.Kind == KindArray {
		f.isArray = true
	} else {
		f.dict = make(document.Dict)
	}
	return f
}
