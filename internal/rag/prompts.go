package rag

const questionPrompt = `You decide whether a user question is about %s.
Answer with a single word: "yes" if it is, "no" if it is not.`

const agentPrompt = `You answer questions using a document collection.
Call the %s tool with a "query" argument when you need documents.
Answer directly only when the conversation already contains what you need.`

const gradePrompt = `You grade whether retrieved documents are relevant to a user question.
If the documents contain keywords or meaning related to the question, they are relevant.
Answer with a single word: "yes" if relevant, "no" if not.`

const rewritePrompt = `Look at the question and reason about its underlying intent.
Reply with an improved version of the question and nothing else.`

const generatePrompt = `You are a recommendation assistant. Use only the context below to answer.
Recommend one or two best matches, explain their strengths and include any links or images
found in the metadata.

Context:
%s`
