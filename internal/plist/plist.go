// Package plist reads and edits XML property lists.
//
// Only the subset panelock touches is modelled: a top-level <dict> whose
// values are looked up as strings or arrays of strings. Every other key and
// value type in the document is carried through edits untouched.
package plist

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

const doctype = `DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd"`

var (
	// ErrBinary is returned when parsing a binary property list.
	ErrBinary = errors.New("binary property list")

	// ErrMalformed is returned for documents without a <plist><dict> root.
	ErrMalformed = errors.New("malformed property list")

	// ErrType is returned when a key holds a value of an unexpected type.
	ErrType = errors.New("unexpected value type")
)

// IsBinary reports whether data starts with the binary property list magic.
func IsBinary(data []byte) bool {
	return bytes.HasPrefix(data, []byte("bplist"))
}

// Document is an XML property list whose root value is a dictionary.
type Document struct {
	doc  *etree.Document
	dict *etree.Element
}

// New returns an empty property list document.
func New() *Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective(doctype)
	root := doc.CreateElement("plist")
	root.CreateAttr("version", "1.0")
	return &Document{doc: doc, dict: root.CreateElement("dict")}
}

// Parse reads an XML property list.
func Parse(data []byte) (*Document, error) {
	if IsBinary(data) {
		return nil, ErrBinary
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "plist" {
		return nil, fmt.Errorf("%w: missing <plist> root", ErrMalformed)
	}

	dict := root.SelectElement("dict")
	if dict == nil {
		if len(root.ChildElements()) > 0 {
			return nil, fmt.Errorf("%w: root value is not a <dict>", ErrMalformed)
		}
		dict = root.CreateElement("dict")
	}

	return &Document{doc: doc, dict: dict}, nil
}

// lookup returns the <key> element for key and the value element after it.
func (d *Document) lookup(key string) (*etree.Element, *etree.Element) {
	children := d.dict.ChildElements()
	for i := 0; i+1 < len(children); i += 2 {
		if children[i].Tag == "key" && children[i].Text() == key {
			return children[i], children[i+1]
		}
	}
	return nil, nil
}

// Has reports whether key is present in the dictionary.
func (d *Document) Has(key string) bool {
	k, _ := d.lookup(key)
	return k != nil
}

// String returns the string stored under key.
func (d *Document) String(key string) (string, bool, error) {
	_, v := d.lookup(key)
	if v == nil {
		return "", false, nil
	}
	if v.Tag != "string" {
		return "", true, fmt.Errorf("%w: %s is <%s>, want <string>", ErrType, key, v.Tag)
	}
	return v.Text(), true, nil
}

// StringArray returns the array of strings stored under key.
func (d *Document) StringArray(key string) ([]string, bool, error) {
	_, v := d.lookup(key)
	if v == nil {
		return nil, false, nil
	}
	if v.Tag != "array" {
		return nil, true, fmt.Errorf("%w: %s is <%s>, want <array>", ErrType, key, v.Tag)
	}

	values := []string{}
	for _, item := range v.ChildElements() {
		if item.Tag != "string" {
			return nil, true, fmt.Errorf("%w: %s contains <%s>, want <string>", ErrType, key, item.Tag)
		}
		values = append(values, item.Text())
	}
	return values, true, nil
}

// SetStringArray stores values under key, replacing any existing value.
func (d *Document) SetStringArray(key string, values []string) {
	_, v := d.lookup(key)
	if v == nil {
		d.dict.CreateElement("key").SetText(key)
		v = d.dict.CreateElement("array")
	}

	v.Tag = "array"
	v.Attr = nil
	v.Child = nil
	for _, value := range values {
		v.CreateElement("string").SetText(value)
	}
}

// Delete removes key and its value. Missing keys are ignored.
func (d *Document) Delete(key string) {
	k, v := d.lookup(key)
	if k == nil {
		return
	}
	d.dict.RemoveChild(k)
	d.dict.RemoveChild(v)
}

// Bytes serializes the document with tab indentation.
func (d *Document) Bytes() ([]byte, error) {
	d.doc.IndentTabs()
	data, err := d.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize property list: %w", err)
	}
	return data, nil
}
