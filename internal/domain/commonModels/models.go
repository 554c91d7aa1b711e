package commonModels

import "time"

// Document is the metadata row of an uploaded file. The searchable content lives in the session index.
type Document struct {
	Id          string    `json:"id"`
	SessionId   string    `json:"session_id"`
	Name        string    `json:"filename"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ContentType DocType   `json:"content_type,omitempty"`
}

// DocChunk is one span of extracted page text, ordered across the whole document.
type DocChunk struct {
	SessionId      string `json:"session_id"`
	ChunkId        string `json:"chunk_id"`
	Chunk          string `json:"content"`
	PageNum        int    `json:"page_num"`
	Order          int    `json:"chunk_order"`
	ChunkPageOrder int    `json:"chunk_page_order"`
}

type DocType string

var PDF DocType = "PDF"
var ERR DocType = "ERROR"
