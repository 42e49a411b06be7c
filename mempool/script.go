package mempool

import "github.com/bsv-blockchain/go-bt/v2/bscript"

func scriptBytes(s *bscript.Script) []byte {
	if s == nil {
		return nil
	}

	return *s
}
