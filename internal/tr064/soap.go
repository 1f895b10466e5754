package tr064

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	soapEncodingNS = "http://schemas.xmlsoap.org/soap/encoding/"
)

// Arg is a single named action argument. Arguments are sent in the order
// given; TR-064 implementations are not required to accept any other order.
type Arg struct {
	Name  string
	Value any
}

// Arguments holds the output arguments of an action response, keyed by name
// (e.g. "NewEnable").
type Arguments map[string]string

// String returns the named argument or "" when absent.
func (a Arguments) String(name string) string {
	return a[name]
}

// Bool parses a boolean output argument ("1"/"0", "true"/"false").
func (a Arguments) Bool(name string) (bool, error) {
	v, ok := a[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("argument %s: invalid boolean %q", name, v)
}

// Int parses an integer output argument.
func (a Arguments) Int(name string) (int, error) {
	v, ok := a[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("argument %s: invalid integer %q", name, v)
	}
	return n, nil
}

// FaultError is a SOAP fault carrying a UPnP error code.
type FaultError struct {
	Code        int    // UPnP errorCode, e.g. 401, 402, 606
	Description string // UPnP errorDescription
	FaultString string // SOAP faultstring, usually "UPnPError"
}

func (e *FaultError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("UPnPError %d: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("UPnPError %d", e.Code)
}

// Well-known UPnP error codes.
const (
	FaultInvalidAction        = 401
	FaultInvalidArgs          = 402
	FaultActionFailed         = 501
	FaultArgumentValueInvalid = 600
	FaultActionNotAuthorized  = 606
	FaultValueNotSpecified    = 820
)

// buildEnvelope renders a SOAP 1.1 request for action on serviceType.
func buildEnvelope(serviceType, action string, args []Arg) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	fmt.Fprintf(&buf, `<s:Envelope xmlns:s="%s" s:encodingStyle="%s"><s:Body>`, soapEnvelopeNS, soapEncodingNS)
	fmt.Fprintf(&buf, `<u:%s xmlns:u="%s">`, action, serviceType)
	for _, arg := range args {
		value, err := formatValue(arg.Value)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", arg.Name, err)
		}
		fmt.Fprintf(&buf, "<%s>", arg.Name)
		if err := xml.EscapeText(&buf, []byte(value)); err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "</%s>", arg.Name)
	}
	fmt.Fprintf(&buf, `</u:%s></s:Body></s:Envelope>`, action)
	return buf.Bytes(), nil
}

func formatValue(v any) (string, error) {
	switch val := v.(type) {
	case bool:
		if val {
			return "1", nil
		}
		return "0", nil
	case string:
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case fmt.Stringer:
		return val.String(), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("unsupported argument type %T", v)
}

// parseEnvelope extracts the output arguments of <action>Response, or a
// *FaultError when the body holds a SOAP fault.
func parseEnvelope(r io.Reader, action string) (Arguments, error) {
	dec := xml.NewDecoder(r)

	var (
		inBody   bool
		root     string
		depth    int // depth below the payload root
		text     strings.Builder
		hasChild []bool // per open element below root: saw a child element
		leaves   = Arguments{}
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case !inBody:
				if t.Name.Local == "Body" {
					inBody = true
				}
			case root == "":
				root = t.Name.Local
			default:
				if len(hasChild) > 0 {
					hasChild[len(hasChild)-1] = true
				}
				hasChild = append(hasChild, false)
				depth++
				text.Reset()
			}
		case xml.CharData:
			if depth > 0 {
				text.Write(t)
			}
		case xml.EndElement:
			if depth > 0 {
				if !hasChild[len(hasChild)-1] {
					leaves[t.Name.Local] = strings.TrimSpace(text.String())
				}
				hasChild = hasChild[:len(hasChild)-1]
				depth--
				text.Reset()
			} else if root != "" && t.Name.Local == root {
				return finishEnvelope(root, action, leaves)
			}
		}
	}

	if root == "" {
		return nil, fmt.Errorf("%w: no SOAP body", ErrMalformedResponse)
	}
	return finishEnvelope(root, action, leaves)
}

func finishEnvelope(root, action string, leaves Arguments) (Arguments, error) {
	if root == "Fault" {
		code, _ := strconv.Atoi(leaves["errorCode"])
		return nil, &FaultError{
			Code:        code,
			Description: leaves["errorDescription"],
			FaultString: leaves["faultstring"],
		}
	}
	if root != action+"Response" {
		return nil, fmt.Errorf("%w: expected %sResponse, got %s", ErrMalformedResponse, action, root)
	}
	return leaves, nil
}
