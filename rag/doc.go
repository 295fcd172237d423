/*
# 概述

Package rag 提供知识库检索管线：文档分块、嵌入、扁平向量索引、
磁盘持久化和带出处的 top-k 检索。

# 核心接口/类型

  - Chunk — 带出处的不可变索引文本块
  - Hit — 单条检索结果（rank / source / text / score）
  - Chunker — 固定大小、带重叠的字符窗口分块器
  - FlatIndex — 内积扁平索引（向量 L2 归一化后内积近似余弦相似度）
  - Store — 索引构建、双工件持久化（vectors.bin + chunks.json）与搜索
  - Retriever — 查询嵌入 + 最近邻搜索，返回带 rank 的 Hit
  - EmbeddingProvider — 检索所需的最小嵌入接口
  - TokenCounter — 上下文 token 预算所需的最小计数接口

# 主要能力

  - 分块：重叠窗口，重叠必须小于块大小（否则 CONFIG_CHUNKING 错误）
  - 持久化：两个工件必须同时存在且数量一致，否则 INDEX_NOT_FOUND /
    INDEX_CORRUPT
  - 提示组装：按 "[rank] Source: x" 编号的上下文块与去重引用标签
*/
package rag
