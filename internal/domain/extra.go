package domain

import "encoding/json"

// Extra guarda los miembros JSON que el tipo no declara, tal como llegaron.
type Extra map[string]json.RawMessage

// decodeWithExtra decodifica data en known y devuelve los miembros fuera de keys.
func decodeWithExtra(data []byte, known any, keys ...string) (Extra, error) {
	if err := json.Unmarshal(data, known); err != nil {
		return nil, err
	}
	var all Extra
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range keys {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// encodeWithExtra serializa known y agrega extra sin pisar miembros propios.
func encodeWithExtra(known any, extra Extra) ([]byte, error) {
	data, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}
