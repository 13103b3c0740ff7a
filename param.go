package gammahook

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

const paramNameLen = 16

// ParamSize is the size of an encoded [Param].
const ParamSize = paramNameLen*2 + 2

// Param is the parameter passed to HookStart by the injector, matching the C
// struct:
//
//	typedef struct HookParam {
//	  WCHAR serverName[16];
//	  INTERNET_PORT serverPort;
//	} HookParam;
type Param struct {
	ServerName [paramNameLen]uint16
	ServerPort uint16
}

// NewParam encodes cfg as a Param. The name is NUL-terminated if it is
// shorter than [MaxHostLength].
func NewParam(cfg SessionConfig) (Param, error) {
	if err := cfg.Validate(); err != nil {
		return Param{}, err
	}
	var p Param
	copy(p.ServerName[:], utf16.Encode([]rune(cfg.Host)))
	p.ServerPort = cfg.Port
	return p, nil
}

// ParseParam decodes a little-endian Param.
func ParseParam(b []byte) (Param, error) {
	var p Param
	if len(b) < ParamSize {
		return p, fmt.Errorf("param too short (%d < %d)", len(b), ParamSize)
	}
	for i := range p.ServerName {
		p.ServerName[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	p.ServerPort = binary.LittleEndian.Uint16(b[paramNameLen*2:])
	return p, nil
}

// AppendBinary appends the little-endian encoding of p.
func (p Param) AppendBinary(b []byte) ([]byte, error) {
	for _, c := range p.ServerName {
		b = binary.LittleEndian.AppendUint16(b, c)
	}
	return binary.LittleEndian.AppendUint16(b, p.ServerPort), nil
}

// Config decodes the session config. The server name ends at the first NUL,
// or after all 16 code units.
func (p Param) Config() SessionConfig {
	name := p.ServerName[:]
	for i, c := range name {
		if c == 0 {
			name = name[:i]
			break
		}
	}
	return SessionConfig{
		Host: string(utf16.Decode(name)),
		Port: p.ServerPort,
	}
}
