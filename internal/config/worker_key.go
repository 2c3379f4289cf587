package config

type WorkerKeyStruct struct {
	AssembleUploadQueue string
	TranscodeQueue      string
	ThumbnailQueue      string
}

var WorkerKey = &WorkerKeyStruct{
	AssembleUploadQueue: "assemble_upload_queue",
	TranscodeQueue:      "transcode_queue",
	ThumbnailQueue:      "thumbnail_queue",
}
